package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"fintrack/internal/money"
	"fintrack/internal/report"
)

const (
	maxNameLen     = 255
	maxUsernameLen = 100
)

// readRaw returns the next input line without trimming. io.EOF means the
// input is exhausted.
func (s *Shell) readRaw() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.in.Text(), nil
}

func (s *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.readRaw()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads a password, hiding the echo when input is a terminal.
func (s *Shell) readSecret(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if s.tty != nil {
		b, err := term.ReadPassword(int(s.tty.Fd()))
		fmt.Fprintln(s.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return s.readRaw()
}

func (s *Shell) promptNonEmpty(prompt string, maxLen int) (string, error) {
	for {
		v, err := s.readLine(prompt)
		if err != nil {
			return "", err
		}
		switch {
		case v == "":
			fmt.Fprintln(s.out, "Please enter something.")
		case len([]rune(v)) > maxLen:
			fmt.Fprintf(s.out, "Too long (max %d chars).\n", maxLen)
		default:
			return v, nil
		}
	}
}

func (s *Shell) promptPassword(prompt string) (string, error) {
	for {
		p, err := s.readSecret(prompt)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(p) != "" {
			return p, nil
		}
		fmt.Fprintln(s.out, "Password cannot be empty.")
	}
}

func (s *Shell) promptAmount(prompt string) (decimal.Decimal, error) {
	for {
		v, err := s.readLine(prompt)
		if err != nil {
			return decimal.Decimal{}, err
		}
		d, err := money.Parse(v)
		if err == nil {
			return d, nil
		}
		fmt.Fprintln(s.out, "Enter a valid non-negative number (like 100.50).")
	}
}

// promptOptionalAmount returns nil when the answer is blank.
func (s *Shell) promptOptionalAmount(prompt string) (*decimal.Decimal, error) {
	for {
		v, err := s.readLine(prompt)
		if err != nil || v == "" {
			return nil, err
		}
		d, err := money.Parse(v)
		if err == nil {
			return &d, nil
		}
		fmt.Fprintln(s.out, "Enter a valid non-negative number (like 100.50).")
	}
}

func (s *Shell) promptDays(prompt string, def int) (int, error) {
	for {
		v, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err == nil && n >= 1 && n <= report.MaxDays {
			return n, nil
		}
		fmt.Fprintf(s.out, "Enter a whole number of days between 1 and %d.\n", report.MaxDays)
	}
}

var errNoChoice = errors.New("nothing to choose from")

// choose lists labels and returns the zero-based index picked by the user.
// Only numbers shown in the list are accepted.
func (s *Shell) choose(title string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, errNoChoice
	}
	fmt.Fprintf(s.out, "\nChoose %s:\n", title)
	s.printOptions(labels)
	prompt := fmt.Sprintf("Enter number (1-%d): ", len(labels))
	for {
		v, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if i, ok := pick(v, len(labels)); ok {
			return i, nil
		}
		fmt.Fprintln(s.out, "Invalid choice.")
	}
}

// chooseOptional is like choose but a blank answer keeps the current value
// and yields -1.
func (s *Shell) chooseOptional(prompt string, labels []string) (int, error) {
	s.printOptions(labels)
	for {
		v, err := s.readLine(prompt)
		if err != nil {
			return -1, err
		}
		if v == "" {
			return -1, nil
		}
		if i, ok := pick(v, len(labels)); ok {
			return i, nil
		}
		fmt.Fprintln(s.out, "Invalid choice.")
	}
}

func (s *Shell) printOptions(labels []string) {
	for i, l := range labels {
		fmt.Fprintf(s.out, " %d) %s\n", i+1, l)
	}
}

func pick(v string, n int) (int, bool) {
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Package shell implements the interactive expense tracker menu on top of the
// storage layer.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/term"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// Store is the subset of storage.DB the shell needs.
type Store interface {
	CreateUser(ctx context.Context, username, password, email string) (*models.User, error)
	AuthenticateUser(ctx context.Context, identifier, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateExpense(ctx context.Context, userID, categoryID int64, name string, amount decimal.Decimal) (*models.Expense, error)
	ListExpenses(ctx context.Context, userID *int64) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, id int64, upd models.ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpenseAggregatesByDate(ctx context.Context, userID int64, days int) ([]time.Time, []decimal.Decimal, error)
}

// Session holds the logged-in user. The zero value is logged out.
type Session struct {
	User *models.User
}

// LoggedIn reports whether a user is attached to the session.
func (s Session) LoggedIn() bool {
	return s.User != nil
}

// Options configures a Shell.
type Options struct {
	Logger *zap.Logger
	// ChartDir receives rendered charts. Defaults to the working directory.
	ChartDir string
}

// Shell reads commands from in and writes prompts and results to out.
type Shell struct {
	store    Store
	in       *bufio.Scanner
	tty      *os.File
	out      io.Writer
	log      *zap.Logger
	chartDir string
	session  Session
}

var errExit = errors.New("exit")

// New returns a logged-out shell reading from in and writing to out.
func New(store Store, in io.Reader, out io.Writer, opts Options) *Shell {
	s := &Shell{
		store:    store,
		in:       bufio.NewScanner(in),
		out:      out,
		log:      opts.Logger,
		chartDir: opts.ChartDir,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.chartDir == "" {
		s.chartDir = "."
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.tty = f
		// Password prompts read the fd directly, so the scanner must not
		// buffer past the current line.
		s.in = bufio.NewScanner(byteReader{f})
	}
	return s
}

// byteReader hands out at most one byte per Read.
type byteReader struct {
	r io.Reader
}

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return b.r.Read(p)
}

// Session returns the current session.
func (s *Shell) Session() Session {
	return s.session
}

type command struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

func (s *Shell) guestCommands() []command {
	return []command{
		{"1", "Register", s.register},
		{"2", "Log in", s.login},
		{"0", "Exit", s.exit},
	}
}

func (s *Shell) userCommands() []command {
	return []command{
		{"1", "Create category", s.createCategory},
		{"2", "Add expense", s.addExpense},
		{"3", "List expenses", s.listExpenses},
		{"4", "Update expense", s.updateExpense},
		{"5", "Delete expense", s.deleteExpense},
		{"6", "Show chart", s.showChart},
		{"9", "Log out", s.logout},
		{"0", "Exit", s.exit},
	}
}

// Run executes the menu loop until the user exits, the input ends or ctx is
// cancelled. Only a cancelled context or an unreadable input is returned as
// an error.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.refreshSession(ctx)

		cmds := s.guestCommands()
		title := "===== Expense Tracker ====="
		if s.session.LoggedIn() {
			cmds = s.userCommands()
			title = fmt.Sprintf("===== Expense Tracker (%s) =====", s.session.User.Username)
		}

		fmt.Fprintf(s.out, "\n%s\n", title)
		for _, c := range cmds {
			fmt.Fprintf(s.out, "%s) %s\n", c.key, c.label)
		}
		choice, err := s.readLine("Choose option: ")
		if err != nil {
			return s.finish(err)
		}

		var selected *command
		for i := range cmds {
			if cmds[i].key == choice {
				selected = &cmds[i]
				break
			}
		}
		if selected == nil {
			fmt.Fprintln(s.out, "Invalid choice.")
			continue
		}

		if err := s.handle(selected.label, selected.run(ctx)); err != nil {
			return s.finish(err)
		}
	}
}

// handle reports a command failure to the user and keeps the loop going.
// Exit, end of input and cancellation are passed through.
func (s *Shell) handle(label string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errExit), errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.log.Error("command failed", zap.String("command", label), zap.Error(err))
	fmt.Fprintf(s.out, "Error: %v\n", err)
	return nil
}

func (s *Shell) finish(err error) error {
	if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// refreshSession drops the session when the user row has gone away.
func (s *Shell) refreshSession(ctx context.Context) {
	if !s.session.LoggedIn() {
		return
	}
	u, err := s.store.GetUserByID(ctx, s.session.User.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.log.Info("session user no longer exists", zap.Int64("user_id", s.session.User.ID))
		s.session = Session{}
		fmt.Fprintln(s.out, "Your account no longer exists. Logged out.")
	case err != nil:
		s.log.Warn("refresh session", zap.Error(err))
	default:
		s.session.User = u
	}
}

func (s *Shell) exit(context.Context) error {
	fmt.Fprintln(s.out, "Goodbye!")
	return errExit
}

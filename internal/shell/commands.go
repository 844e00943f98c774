package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
)

const (
	timeLayout  = "2006-01-02 15:04:05"
	defaultDays = 7
)

func (s *Shell) register(ctx context.Context) error {
	username, err := s.promptNonEmpty("Username: ", maxUsernameLen)
	if err != nil {
		return err
	}
	email, err := s.readLine("Email (optional): ")
	if err != nil {
		return err
	}
	password, err := s.promptPassword("Password: ")
	if err != nil {
		return err
	}

	for {
		u, err := s.store.CreateUser(ctx, username, password, email)
		switch {
		case err == nil:
			s.session = Session{User: u}
			fmt.Fprintf(s.out, "Registered and logged in as %s.\n", u.Username)
			return nil
		case errors.Is(err, models.ErrDuplicate):
			fmt.Fprintf(s.out, "Username %q is taken, try another.\n", username)
		case errors.Is(err, models.ErrValidation):
			fmt.Fprintf(s.out, "Invalid input: %v\n", err)
		default:
			return err
		}
		if username, err = s.promptNonEmpty("Username: ", maxUsernameLen); err != nil {
			return err
		}
	}
}

func (s *Shell) login(ctx context.Context) error {
	identifier, err := s.promptNonEmpty("Username or email: ", maxNameLen)
	if err != nil {
		return err
	}
	password, err := s.readSecret("Password: ")
	if err != nil {
		return err
	}

	u, err := s.store.AuthenticateUser(ctx, identifier, password)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintln(s.out, "Invalid username or password.")
		return nil
	}
	s.session = Session{User: u}
	s.log.Debug("logged in", zap.Int64("user_id", u.ID))
	fmt.Fprintf(s.out, "Logged in as %s.\n", u.Username)
	return nil
}

func (s *Shell) logout(context.Context) error {
	s.session = Session{}
	fmt.Fprintln(s.out, "Logged out.")
	return nil
}

func (s *Shell) createCategory(ctx context.Context) error {
	for {
		name, err := s.promptNonEmpty("Category name: ", maxUsernameLen)
		if err != nil {
			return err
		}
		c, err := s.store.CreateCategory(ctx, name)
		switch {
		case err == nil:
			fmt.Fprintf(s.out, "Created category: %s\n", c.Name)
			return nil
		case errors.Is(err, models.ErrDuplicate):
			fmt.Fprintf(s.out, "Category %q already exists, try another.\n", name)
		case errors.Is(err, models.ErrValidation):
			fmt.Fprintf(s.out, "Invalid input: %v\n", err)
		default:
			return err
		}
	}
}

func (s *Shell) addExpense(ctx context.Context) error {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Fprintln(s.out, "No categories. Create one first.")
		return nil
	}
	i, err := s.choose("category", categoryLabels(cats))
	if err != nil {
		return err
	}

	name, err := s.promptNonEmpty("Expense name: ", maxNameLen)
	if err != nil {
		return err
	}
	amount, err := s.promptAmount("Amount: ")
	if err != nil {
		return err
	}

	e, err := s.store.CreateExpense(ctx, s.session.User.ID, cats[i].ID, name, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Expense saved (id=%d)\n", e.ID)
	return nil
}

func (s *Shell) ownExpenses(ctx context.Context) ([]models.Expense, error) {
	id := s.session.User.ID
	return s.store.ListExpenses(ctx, &id)
}

func (s *Shell) listExpenses(ctx context.Context) error {
	exps, err := s.ownExpenses(ctx)
	if err != nil {
		return err
	}
	if len(exps) == 0 {
		fmt.Fprintln(s.out, "No expenses found.")
		return nil
	}

	fmt.Fprintln(s.out, "\nYour Expenses:")
	for _, e := range exps {
		fmt.Fprintf(s.out, "ID:%d | Category:%s | %s | %s | Created:%s | Updated:%s\n",
			e.ID, e.Category.Name, e.Name, money.Format(e.Amount),
			e.CreatedAt.Format(timeLayout), e.UpdatedAt.Format(timeLayout))
	}
	fmt.Fprintf(s.out, "Total: %s\n", money.Format(money.Sum(amounts(exps))))
	return nil
}

func (s *Shell) updateExpense(ctx context.Context) error {
	exps, err := s.ownExpenses(ctx)
	if err != nil {
		return err
	}
	if len(exps) == 0 {
		fmt.Fprintln(s.out, "No expenses to update.")
		return nil
	}
	i, err := s.choose("expense", expenseLabels(exps))
	if err != nil {
		return err
	}
	exp := exps[i]

	var upd models.ExpenseUpdate
	name, err := s.readLine(fmt.Sprintf("New name [%s]: ", exp.Name))
	if err != nil {
		return err
	}
	if name != "" && name != exp.Name {
		upd.Name = &name
	}

	amount, err := s.promptOptionalAmount(fmt.Sprintf("New amount [%s]: ", money.Format(exp.Amount)))
	if err != nil {
		return err
	}
	if amount != nil && !amount.Equal(exp.Amount) {
		upd.Amount = amount
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	c, err := s.chooseOptional("Choose new category or Enter to keep current: ", categoryLabels(cats))
	if err != nil {
		return err
	}
	if c >= 0 && cats[c].ID != exp.CategoryID {
		upd.CategoryID = &cats[c].ID
	}

	if upd.IsEmpty() {
		fmt.Fprintln(s.out, "Nothing changed.")
		return nil
	}
	if _, err := s.store.UpdateExpense(ctx, exp.ID, upd); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintln(s.out, "That expense no longer exists.")
			return nil
		}
		return err
	}
	fmt.Fprintln(s.out, "Updated successfully.")
	return nil
}

func (s *Shell) deleteExpense(ctx context.Context) error {
	exps, err := s.ownExpenses(ctx)
	if err != nil {
		return err
	}
	if len(exps) == 0 {
		fmt.Fprintln(s.out, "No expenses to delete.")
		return nil
	}
	i, err := s.choose("expense", expenseLabels(exps))
	if err != nil {
		return err
	}
	exp := exps[i]

	answer, err := s.readLine(fmt.Sprintf("Type 'yes' or 'y' to delete %s: ", exp.Name))
	if err != nil {
		return err
	}
	if !confirmed(answer) {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}

	if err := s.store.DeleteExpense(ctx, exp.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintln(s.out, "That expense no longer exists.")
			return nil
		}
		return err
	}
	fmt.Fprintln(s.out, "Deleted.")
	return nil
}

func (s *Shell) showChart(ctx context.Context) error {
	days, err := s.promptDays(fmt.Sprintf("Days [%d]: ", defaultDays), defaultDays)
	if err != nil {
		return err
	}

	user := s.session.User
	dates, totals, err := s.store.GetExpenseAggregatesByDate(ctx, user.ID, days)
	if err != nil {
		return err
	}
	path, err := report.WriteChartFile(s.chartDir, user.Username, dates, totals)
	if err != nil {
		return err
	}
	s.log.Debug("chart written", zap.String("path", path), zap.Int("days", days))
	fmt.Fprintf(s.out, "Chart saved to %s (total %s over %d days)\n",
		path, money.Format(report.Total(totals)), days)
	return nil
}

func categoryLabels(cats []models.Category) []string {
	labels := make([]string, len(cats))
	for i, c := range cats {
		labels[i] = c.Name
	}
	return labels
}

func expenseLabels(exps []models.Expense) []string {
	labels := make([]string, len(exps))
	for i, e := range exps {
		labels[i] = fmt.Sprintf("%d | %s | %s", e.ID, e.Name, money.Format(e.Amount))
	}
	return labels
}

func amounts(exps []models.Expense) []decimal.Decimal {
	out := make([]decimal.Decimal, len(exps))
	for i, e := range exps {
		out[i] = e.Amount
	}
	return out
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aluiziolira/smartmarket/auth"
	"github.com/aluiziolira/smartmarket/filter"
	"github.com/aluiziolira/smartmarket/models"
	"github.com/aluiziolira/smartmarket/pipeline"
	"github.com/aluiziolira/smartmarket/search"
)

const defaultShowLimit = 20

func (c *Console) handleLogin(ctx context.Context, args []string) error {
	remember := false
	var email string
	for _, arg := range args {
		switch arg {
		case "--remember", "-r":
			remember = true
		default:
			email = arg
		}
	}

	var err error
	if email == "" {
		if email, err = c.promptForInput("email: "); err != nil {
			return err
		}
	}
	password, err := c.promptForPassword("password: ")
	if err != nil {
		return err
	}

	c.session.SetMode(auth.ModeLogin)
	if err := c.session.Login(ctx, email, password, remember); err != nil {
		return err
	}

	where := "for this session"
	if remember {
		where = "and remembered"
	}
	c.printf("Logged in %s.\n", where)
	return nil
}

func (c *Console) handleRegister(ctx context.Context, args []string) error {
	var email string
	var err error
	if len(args) > 0 {
		email = args[0]
	} else if email, err = c.promptForInput("email: "); err != nil {
		return err
	}

	password, err := c.promptForPassword("password: ")
	if err != nil {
		return err
	}
	policy := c.session.Policy()
	c.printf("Password strength: %d/%d\n", policy.Score(password), auth.MaxScore)
	if issues := policy.Issues(password); len(issues) > 0 {
		c.println("Password needs: " + strings.Join(issues, ", "))
	}

	confirm, err := c.promptForPassword("confirm password: ")
	if err != nil {
		return err
	}

	c.session.SetMode(auth.ModeRegister)
	if err := c.session.Register(ctx, email, password, confirm); err != nil {
		return err
	}
	c.println("Registration successful, please log in.")
	return nil
}

func (c *Console) handleLogout() error {
	if err := c.session.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.println("Logged out.")
	return nil
}

func (c *Console) handleStatus() error {
	snap := c.session.Snapshot()
	c.printf("Session:   %s", c.session.State())
	if snap.PersistMode != auth.PersistNone {
		c.printf(" (%s)", snap.PersistMode)
	}
	c.println()
	if snap.FailedAttempts > 0 {
		c.printf("Failed:    %d\n", snap.FailedAttempts)
	}
	if snap.LockUntil != nil {
		if remaining := time.Until(*snap.LockUntil); remaining > 0 {
			c.printf("Locked:    %s remaining\n", remaining.Round(time.Second))
		}
	}

	ds := c.view.Dataset()
	if ds == nil {
		c.println("Dataset:   none")
		return nil
	}
	c.printf("Dataset:   %q, %d items, %d shown\n", ds.Keyword, ds.Count, len(c.view.Items()))
	return nil
}

func (c *Console) handleSearch(ctx context.Context, args []string, urlMode bool) error {
	source := strings.Join(args, " ")
	if strings.TrimSpace(source) == "" {
		if urlMode {
			return fmt.Errorf("usage: url <listing-url>")
		}
		return fmt.Errorf("usage: search <keyword>")
	}
	if c.session.State() != auth.StateAuthenticated {
		return fmt.Errorf("log in first")
	}

	c.println("Searching...")
	res, err := c.search.Run(ctx, search.Request{Source: source, URLMode: urlMode})
	if err != nil {
		return err
	}

	switch res.Outcome {
	case search.OutcomeBusy:
		c.println("A search is already running.")
	case search.OutcomeSkipped:
	case search.OutcomePersisted:
		c.printf("%d items (from saved products).\n", res.Dataset.Count)
	default:
		c.printf("%d items.\n", res.Dataset.Count)
	}
	return nil
}

func (c *Console) handleRange(args []string, set func(lo, hi float64), name string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <lo> <hi>", name)
	}
	lo, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", name, args[0])
	}
	hi, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", name, args[1])
	}

	set(lo, hi)
	sel := c.view.Selection()
	if name == "price" {
		c.printf("Price %s - %s, %d items shown.\n", formatMoney(sel.PriceLo), formatMoney(sel.PriceHi), len(c.view.Items()))
	} else {
		c.printf("Rating %.1f - %.1f, %d items shown.\n", sel.RatingLo, sel.RatingHi, len(c.view.Items()))
	}
	return nil
}

func (c *Console) handleDiscount(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: discount on|off")
	}
	c.view.SetOnlyDiscount(args[0] == "on")
	c.printf("Discount only: %s, %d items shown.\n", args[0], len(c.view.Items()))
	return nil
}

func (c *Console) handleShow(args []string) error {
	limit := defaultShowLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: show [n]")
		}
		limit = n
	}

	items := c.view.Items()
	if len(items) == 0 {
		c.println("No items.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tPRICE\tDISCOUNT\tRATING\tOPINIONS\tSOLD")
	for i, it := range items {
		if i >= limit {
			break
		}
		opinions := ""
		if n, ok := it.Opinions(); ok {
			opinions = strconv.Itoa(n)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, truncate(it.Title, 48), formatNumberMoney(it.Price), formatNumberMoney(it.DiscountPrice),
			it.Rating.String(), opinions, it.Sold.String())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(items) > limit {
		c.printf("... %d more\n", len(items)-limit)
	}
	return nil
}

func (c *Console) handleStats() error {
	items := c.view.Items()
	s := filter.Summarize(items, c.cfg.HistogramBuckets)
	c.printf("Items:     %d (%d priced, %d rated, %d discounted)\n", s.Count, s.Priced, s.Rated, s.DiscountCount)
	if s.Priced > 0 {
		c.printf("Price:     min %s  p25 %s  median %s  p75 %s  p90 %s  max %s  avg %s\n",
			formatMoney(s.PriceMin), formatMoney(s.PriceP25), formatMoney(s.PriceMedian),
			formatMoney(s.PriceP75), formatMoney(s.PriceP90), formatMoney(s.PriceMax), formatMoney(s.PriceAvg))
	}
	if s.Rated > 0 {
		c.printf("Rating:    avg %.2f\n", s.RatingAvg)
	}
	for _, b := range s.Histogram {
		c.printf("  %12s - %-12s %s %d\n", formatMoney(b.Min), formatMoney(b.Max), strings.Repeat("#", b.Count), b.Count)
	}

	if a := c.search.Analysis(); a != nil {
		c.printAnalysis(a)
	}
	return nil
}

func (c *Console) printAnalysis(a *models.Analysis) {
	sum := a.Summary
	c.printf("Service:   %d items, %d discounted", sum.Count, sum.DiscountCount)
	if v, ok := sum.Price.Avg.Float(); ok {
		c.printf(", avg price %s", formatMoney(v))
	}
	if v, ok := sum.Rating.Avg.Float(); ok {
		c.printf(", avg rating %.2f", v)
	}
	c.println()
	if a.Sentiment.Count > 0 {
		c.printf("Sentiment: %d reviews, +%s / =%s / -%s\n", a.Sentiment.Count,
			a.Sentiment.Positive.String(), a.Sentiment.Neutral.String(), a.Sentiment.Negative.String())
	}
}

func (c *Console) handleExport(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: export <file> [csv|json|dual]")
	}
	format := c.cfg.OutputFormat
	if len(args) == 2 {
		format = strings.ToLower(args[1])
	}

	items := c.view.Items()
	if len(items) == 0 {
		return errors.New("nothing to export")
	}
	res, err := pipeline.Export(ctx, c.cfg, items, args[0], format)
	if err != nil {
		return err
	}
	c.printf("Exported %d items to %s.\n", res.Written, strings.Join(res.Paths, ", "))
	if skipped := res.Skipped["invalid_record"] + res.Skipped["duplicate_url"]; skipped > 0 {
		c.printf("Skipped %d items (%v).\n", skipped, res.Skipped)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatMoney renders whole currency units with thousands separators.
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatFloat(v, 'f', 0, 64)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func formatNumberMoney(n models.Number) string {
	v, ok := n.Float()
	if !ok {
		return ""
	}
	return formatMoney(v)
}

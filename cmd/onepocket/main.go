package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"onepocket/internal/api"
	"onepocket/internal/cache"
	"onepocket/internal/cli"
	"onepocket/internal/config"
	"onepocket/internal/connectivity"
	"onepocket/internal/core"
	"onepocket/internal/log"
	"onepocket/internal/queue"
	"onepocket/internal/search"
	"onepocket/internal/session"
	"onepocket/internal/storage"
	"onepocket/internal/store"
)

const usage = `onepocket - personal expense tracker

Usage:
  onepocket <command> [flags]

Commands:
  login       Sign in and persist the session
  register    Create an account and sign in
  logout      Clear the persisted session
  add         Record an expense (queued locally when offline)
  rm          Delete an expense
  reimburse   Mark a reimbursable expense as paid back
  list        Show expenses grouped by day
  search      Search expense notes
  analytics   Per-category spending breakdown
  budgets     Budget status for a month
  budget-set  Create or update a budget
  report      Monthly summary report
  history     Compare recent months
  categories  Manage expense categories
  sync        Run the offline queue until interrupted
  status      Connectivity, session and queue state
`

// app bundles the wired components every subcommand draws from.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	state    *storage.LocalState
	client   *api.Client
	session  *session.Manager
	monitor  *connectivity.Monitor
	queue    *queue.OfflineQueue
	expenses *store.ExpenseStore
	budgets  *store.BudgetStore
	cats     *store.CategoryStore
	reports  *store.ReportService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	a, err := wire(cfg, logger)
	if err != nil {
		logger.Error("Startup failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer a.state.Close()

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "onepocket: %v\n", err)
		os.Exit(1)
	}
}

func wire(cfg *config.Config, logger *log.Logger) (*app, error) {
	state, err := storage.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL)
	sess := session.NewManager(client, state, client)

	monitorCfg := connectivity.DefaultConfig()
	monitorCfg.PollInterval = cfg.PollInterval
	monitorCfg.ProbeTimeout = cfg.ProbeTimeout
	monitor := connectivity.NewMonitor(connectivity.HTTPProbe(cfg.ProbeURL, nil), monitorCfg)

	queueCfg := queue.DefaultConfig()
	queueCfg.StateKey = storage.KeyOfflineQueue
	queueCfg.DrainTimeout = cfg.DrainTimeout
	q := queue.New(state, func(ctx context.Context, form core.ExpenseForm) error {
		_, err := client.AddExpense(ctx, form)
		return err
	}, monitor, queueCfg)

	reports := store.NewReportService(client)
	expenses := store.NewExpenseStore(client, reports.Invalidate)
	budgets := store.NewBudgetStore(client, reports.Invalidate)
	cats := store.NewCategoryStore(client)

	// Signed-out state must not leak data into the next session.
	sess.OnUserChange(func(u *core.User) {
		if u == nil {
			_ = expenses.SetUser(context.Background(), "")
			cats.Reset()
			budgets.Reset()
			reports.Invalidate()
		}
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		state:    state,
		client:   client,
		session:  sess,
		monitor:  monitor,
		queue:    q,
		expenses: expenses,
		budgets:  budgets,
		cats:     cats,
		reports:  reports,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args, false)
	case "register":
		return a.cmdLogin(ctx, args, true)
	case "logout":
		return a.cmdLogout(ctx)
	case "add":
		return a.cmdAdd(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "rm":
		return a.cmdRemove(ctx, args)
	case "reimburse":
		return a.cmdReimburse(ctx, args)
	case "search":
		return a.cmdSearch(ctx, args)
	case "analytics":
		return a.cmdAnalytics(ctx, args)
	case "budgets":
		return a.cmdBudgets(ctx, args)
	case "budget-set":
		return a.cmdBudgetSet(ctx, args)
	case "report":
		return a.cmdReport(ctx, args)
	case "history":
		return a.cmdHistory(ctx, args)
	case "categories":
		return a.cmdCategories(ctx, args)
	case "sync":
		return a.cmdSync(args)
	case "status":
		return a.cmdStatus(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// restore loads the persisted session; commands that need authentication call
// it first and fail fast when signed out.
func (a *app) restore(ctx context.Context) error {
	user, err := a.session.Restore(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("not signed in, run 'onepocket login' first")
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string, register bool) error {
	name := "login"
	if register {
		name = "register"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	username := fs.String("u", "", "username")
	fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("username is required (-u)")
	}
	password, err := cli.ReadPassword("Password: ")
	if err != nil {
		return err
	}

	var user core.User
	if register {
		user, err = a.session.Register(ctx, *username, password)
	} else {
		user, err = a.session.Login(ctx, *username, password)
	}
	if err != nil {
		return err
	}
	a.logger.Info("Signed in", log.FieldUser, user.Username)
	fmt.Printf("signed in as %s\n", user.Username)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	_, err := a.session.Restore(ctx)
	if err != nil {
		return err
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	category := fs.String("category", "", "category name")
	date := fs.String("date", "", "date (YYYY-MM-DD, default today)")
	note := fs.String("note", "", "free-text note")
	payment := fs.String("payment", string(core.PaymentUPI), "payment method (upi|cash|credit_card)")
	reimbursable := fs.Bool("reimbursable", false, "expected to be paid back")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}

	form := core.ExpenseForm{
		Amount:        *amount,
		Category:      *category,
		Date:          *date,
		Note:          *note,
		PaymentMethod: core.PaymentMethod(*payment),
		Reimbursable:  *reimbursable,
	}
	if err := form.Validate(core.Today()); err != nil {
		return err
	}

	// One cheap probe decides between a direct submit and the offline queue.
	a.probeOnce(ctx)
	if a.monitor.Online() {
		expense, err := a.expenses.Add(ctx, form)
		if err == nil {
			fmt.Printf("added %s  %s  %s\n", expense.Amount, expense.Category, expense.Date)
			return nil
		}
		a.logger.Warn("Submit failed, queueing locally", log.FieldError, err.Error())
	}

	id := a.queue.Enqueue(form)
	a.logger.Info("Expense queued for sync",
		log.FieldItemID, id, log.FieldQueueSize, a.queue.Size())
	fmt.Printf("offline: queued locally (%d pending), run 'onepocket sync' when back online\n", a.queue.Size())
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	days := fs.Int("days", 0, "only the last N days (0 = everything)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.expenses.Load(ctx); err != nil {
		return err
	}

	expenses := a.expenses.Expenses()
	if *days > 0 {
		expenses = core.SpendingByTimeRange(expenses, *days, core.Today())
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, group := range core.GroupExpensesByDate(expenses) {
		fmt.Fprintf(w, "%s\n", group.Date)
		for _, e := range group.Expenses {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s%s\n",
				e.Amount, e.Category, e.PaymentMethod, e.Note, expenseFlags(e))
		}
	}
	fmt.Fprintf(w, "total\t%s\n", core.TotalSpending(expenses))
	return w.Flush()
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.String("id", "", "expense id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("expense id is required (-id)")
	}
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.expenses.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func (a *app) cmdReimburse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reimburse", flag.ExitOnError)
	id := fs.String("id", "", "expense id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("expense id is required (-id)")
	}
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.expenses.Reimburse(ctx, *id); err != nil {
		return err
	}
	fmt.Println("marked reimbursed")
	return nil
}

func expenseFlags(e core.Expense) string {
	switch {
	case e.Reimbursed:
		return " [reimbursed]"
	case e.Reimbursable:
		return " [reimbursable]"
	default:
		return ""
	}
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("q", "", "note substring to search for")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(*query) == "" {
		return fmt.Errorf("query is required (-q)")
	}

	done := make(chan search.Results, 1)
	s := search.New(a.client, func(r search.Results) { done <- r }, a.cfg.SearchDebounce)
	defer s.Close()
	s.Query(ctx, *query)

	results := <-done
	if results.Err != nil {
		return results.Err
	}
	if len(results.Expenses) == 0 {
		fmt.Println("no matches")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, e := range results.Expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Date, e.Amount, e.Category, e.Note)
	}
	return w.Flush()
}

func (a *app) cmdAnalytics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analytics", flag.ExitOnError)
	days := fs.Int("days", 0, "only the last N days (0 = everything)")
	top := fs.Int("top", 0, "only the top N categories (0 = all)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.expenses.Load(ctx); err != nil {
		return err
	}

	expenses := a.expenses.Expenses()
	if *days > 0 {
		expenses = core.SpendingByTimeRange(expenses, *days, core.Today())
	}

	var data []core.CategoryData
	if *top > 0 {
		data = core.TopCategories(expenses, *top)
	} else {
		data = core.CategoryAnalytics(expenses)
	}
	if len(data) == 0 {
		fmt.Println("no spending to report")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "category\tamount\tcount\tshare")
	for _, d := range data {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f%%\n", d.Category, d.Amount, d.Count, d.Percentage)
	}
	fmt.Fprintf(w, "total\t%s\n", core.TotalSpending(expenses))
	return w.Flush()
}

func (a *app) cmdBudgets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	month := fs.String("month", core.Today().MonthKey(), "month (YYYY-MM)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if _, err := core.ParseMonthKey(*month); err != nil {
		return err
	}
	if err := a.cats.Load(ctx); err != nil {
		return err
	}
	if err := a.budgets.Load(ctx); err != nil {
		return err
	}
	if err := a.expenses.Load(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "category\tbudget\tspent\tremaining\tused")
	for _, st := range a.budgets.Statuses(a.cats.Names(), a.expenses.Expenses(), *month) {
		mark := ""
		if st.IsExceeded {
			mark = " !"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%%s\n",
			st.Category, st.BudgetAmount, st.Spent, st.Remaining, st.PercentageUsed, mark)
	}
	return w.Flush()
}

func (a *app) cmdBudgetSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budget-set", flag.ExitOnError)
	category := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "budget amount")
	month := fs.String("month", "", "month (YYYY-MM, default current)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.budgets.Load(ctx); err != nil {
		return err
	}

	form := core.BudgetForm{Category: *category, Amount: *amount, Month: *month}
	budget, err := a.budgets.Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("budget set: %s %s for %s\n", budget.Category, budget.Amount, budget.Month)
	return nil
}

func (a *app) cmdReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	month := fs.String("month", core.Today().MonthKey(), "month (YYYY-MM)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	if _, err := core.ParseMonthKey(*month); err != nil {
		return err
	}

	summary, err := a.reports.MonthlySummary(ctx, *month)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "month\t%s\n", summary.Month)
	fmt.Fprintf(w, "spent\t%s\n", summary.TotalSpent)
	fmt.Fprintf(w, "reimbursable\t%s\n", summary.TotalReimbursable)
	for _, c := range summary.CategoryBreakdown {
		fmt.Fprintf(w, "  %s\t%s\t%.1f%%\n", c.Category, c.Amount, c.Percentage)
	}
	for _, b := range summary.BudgetComparisons {
		fmt.Fprintf(w, "  %s\tbudget %s\tactual %s\tdiff %s\n",
			b.Category, b.BudgetAmount, b.ActualSpent, b.Difference)
	}
	return w.Flush()
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	months := fs.Int("months", 6, "number of trailing months")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}

	summaries, err := a.reports.MonthlyComparison(ctx, *months)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "month\tspent\treimbursable")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Month, s.TotalSpent, s.TotalReimbursable)
	}
	return w.Flush()
}

func (a *app) cmdCategories(ctx context.Context, args []string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.cats.Load(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		for _, name := range a.cats.Names() {
			fmt.Println(name)
		}
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: onepocket categories add <name>")
		}
		cat, err := a.cats.Create(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", cat.Name)
		return nil
	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: onepocket categories rm <id>")
		}
		if err := a.cats.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	default:
		return fmt.Errorf("unknown categories subcommand %q", args[0])
	}
}

// cmdSync runs the connectivity monitor and offline queue as long-lived
// components so queued expenses flush whenever the API comes back.
func (a *app) cmdSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	once := fs.Bool("once", false, "drain once and exit instead of running")
	fs.Parse(args)

	ctx := context.Background()
	if err := a.restore(ctx); err != nil {
		return err
	}

	if *once {
		a.probeOnce(ctx)
		before := a.queue.Size()
		a.queue.Drain(ctx)
		fmt.Printf("synced %d of %d queued expenses\n", before-a.queue.Size(), before)
		return nil
	}

	cleaner := cache.NewManager()
	cleaner.Register(a.reports.Caches()...)
	cleaner.StartCleanup(5 * time.Minute)

	shutdownCtx, done := cli.GracefulShutdown(a.logger, 30*time.Second, func() {
		cleaner.Stop()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.queue.Stop(stopCtx); err != nil {
			a.logger.Error("Queue stop failed", log.FieldError, err.Error())
		}
		if err := a.monitor.Stop(stopCtx); err != nil {
			a.logger.Error("Monitor stop failed", log.FieldError, err.Error())
		}
	})

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error { return a.monitor.Start(gctx) })
	g.Go(func() error { return a.queue.Start(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("Sync running",
		log.FieldQueueSize, a.queue.Size(), "poll_interval", a.cfg.PollInterval.String())
	cli.WaitForShutdown(shutdownCtx, done)
	return nil
}

func (a *app) cmdStatus(ctx context.Context) error {
	a.probeOnce(ctx)

	state := "offline"
	if a.monitor.Online() {
		state = "online"
	}
	fmt.Printf("connectivity: %s\n", state)

	if user, err := a.session.Restore(ctx); err == nil && user != nil {
		fmt.Printf("signed in as: %s\n", user.Username)
	} else {
		fmt.Println("signed in as: (nobody)")
	}

	fmt.Printf("queued expenses: %d\n", a.queue.Size())
	for _, item := range a.queue.Items() {
		fmt.Printf("  %s  %s  queued %s\n",
			item.Form.Amount, item.Form.Category, item.EnqueuedAt.Format(time.RFC3339))
	}
	return nil
}

// probeOnce settles the online belief with a single probe so one-shot
// commands do not wait for the polling loop.
func (a *app) probeOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, a.cfg.ProbeTimeout)
	defer cancel()
	a.monitor.SetOnline(connectivity.HTTPProbe(a.cfg.ProbeURL, nil)(probeCtx))
}

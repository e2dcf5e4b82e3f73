package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"rentoo/internal/app"
	"rentoo/internal/catalog"
	"rentoo/internal/domain"
	"rentoo/internal/form"
	"rentoo/internal/rental"
	"rentoo/internal/ui"
)

type command struct {
	help   string
	public bool
	run    func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = map[string]command{
	"register":          {"create an account and log in", true, registerCmd},
	"login":             {"log in and remember the session", true, loginCmd},
	"logout":            {"forget the session", true, logoutCmd},
	"whoami":            {"show the logged in user", false, whoamiCmd},
	"items":             {"search the catalog", true, itemsCmd},
	"item":              {"show one item", true, itemCmd},
	"add-item":          {"list a new item", false, addItemCmd},
	"my-items":          {"show your profile and items", false, openRoute(ui.RouteProfile)},
	"delete-item":       {"delete one of your items", false, deleteItemCmd},
	"rent":              {"request a rental: rent <item> <start> <end>", false, rentCmd},
	"rentals":           {"list rentals [-role all|renter|owner]", false, rentalsCmd},
	"confirm":           {"accept a pending rental request", false, transitionCmd(rental.ActionConfirm)},
	"reject":            {"decline a pending rental request", false, transitionCmd(rental.ActionReject)},
	"complete":          {"mark a rental completed", false, transitionCmd(rental.ActionComplete)},
	"messages":          {"show the conversation of a rental", false, messagesCmd},
	"send":              {"send a message: send <rental> <text>", false, sendCmd},
	"notifications":     {"list notifications [-unread]", false, notificationsCmd},
	"read-notification": {"mark a notification read", false, readNotificationCmd},
	"open":              {"render a client route, e.g. open /rentals", true, openCmd},
}

func registerCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" || *password == "" {
		return errors.New("-email, -name and -password are required")
	}

	user, err := a.Session.Register(ctx, *email, *name, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Welcome, %s\n", user.Name)
	return nil
}

func loginCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func logoutCmd(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	if err := a.Session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

func whoamiCmd(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	user := a.Session.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}
	fmt.Fprintf(out, "%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	if exp, ok := a.Session.TokenExpiry(); ok {
		fmt.Fprintf(out, "session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func itemsCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	query := fs.String("q", "", "Text search")
	category := fs.String("category", "", "Category slug")
	minPrice := fs.Float64("min", -1, "Minimum price per day")
	maxPrice := fs.Float64("max", -1, "Maximum price per day")
	location := fs.String("location", "", "Location text")
	sortBy := fs.String("sort", "", "Sort by created_at or price")
	order := fs.String("order", "", "Sort order asc or desc")
	page := fs.Int("page", 0, "Page number")
	limit := fs.Int("limit", 0, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := catalog.Filter{
		Query: *query, Category: *category, Location: *location,
		SortBy: *sortBy, SortOrder: *order, Page: *page, Limit: *limit,
	}
	if *minPrice >= 0 {
		f.MinPrice = minPrice
	}
	if *maxPrice >= 0 {
		f.MaxPrice = maxPrice
	}
	_, err := a.Open(ctx, f.Path(), out)
	return err
}

func itemCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: item <id>")
	}
	_, err := a.Open(ctx, catalog.ItemRoute(args[0]), out)
	return err
}

func addItemCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-item", flag.ContinueOnError)
	fields := form.ItemFields(nil)
	values := make(map[string]*string, len(fields))
	var images multiFlag
	for _, f := range fields {
		if f.Type == form.TypeFile {
			fs.Var(&images, f.Name, f.Label+" (repeatable)")
			continue
		}
		values[f.Name] = fs.String(f.Name, "", f.Label)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	submitted := make(map[string]string, len(values))
	for name, v := range values {
		submitted[name] = *v
	}

	result, errs, err := a.AddItem(ctx, submitted, []string(images))
	if !errs.Empty() {
		_ = ui.RenderErrors(out, fields, errs)
		if err == nil {
			err = errors.New("item not created")
		}
		return err
	}
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: image %s\n", w)
	}
	fmt.Fprintf(out, "Created %s\n", result.Route)
	return ui.RenderItem(out, *result.Item, a.Session.CurrentUser())
}

func deleteItemCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: delete-item <id>")
	}
	if err := a.Catalog.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", args[0])
	return nil
}

func rentCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 3 {
		return errors.New("usage: rent <item> <start YYYY-MM-DD> <end YYYY-MM-DD>")
	}
	item, err := a.Catalog.Item(ctx, args[0])
	if err != nil {
		return err
	}
	r, err := a.Rentals.RequestRental(ctx, *item, args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rental %s requested: %s..%s, total %s, status %s\n",
		r.ID, r.StartDate, r.EndDate, ui.Price(r.TotalPrice), r.Status)
	return nil
}

func rentalsCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rentals", flag.ContinueOnError)
	role := fs.String("role", string(domain.RoleAll), "all, renter or owner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !domain.Role(*role).Valid() {
		return fmt.Errorf("unknown role %q", *role)
	}
	_, err := a.Open(ctx, ui.RouteRentals+"?role="+*role, out)
	return err
}

func transitionCmd(action rental.Action) func(context.Context, *app.App, []string, io.Writer) error {
	return func(ctx context.Context, a *app.App, args []string, out io.Writer) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <rental id>", action)
		}
		r, err := a.Rentals.Get(ctx, args[0])
		if err != nil {
			return err
		}
		updated, err := a.Rentals.Apply(ctx, *r, action)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Rental %s is now %s\n", updated.ID, updated.Status)
		return nil
	}
}

func messagesCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: messages <rental id>")
	}
	msgs, err := a.Inbox.Conversation(ctx, args[0])
	if err != nil {
		return err
	}
	return ui.RenderConversation(out, msgs, a.Session.CurrentUser().ID)
}

func sendCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: send <rental id> <text>")
	}
	r, err := a.Rentals.Get(ctx, args[0])
	if err != nil {
		return err
	}
	msg, err := a.Inbox.Send(ctx, *r, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent message %s\n", msg.ID)
	return nil
}

func notificationsCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	unread := fs.Bool("unread", false, "Only unread notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ns, err := a.Inbox.Notifications(ctx, *unread)
	if err != nil {
		return err
	}
	return ui.RenderNotifications(out, ns)
}

func readNotificationCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: read-notification <id>")
	}
	if err := a.Inbox.MarkNotificationRead(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "Notification %s marked read\n", args[0])
	return nil
}

func openCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: open <route>")
	}
	m, err := a.Open(ctx, args[0], out)
	if err == nil && m.Redirect != "" {
		fmt.Fprintf(out, "(redirected to %s)\n", m.Redirect)
	}
	return err
}

func openRoute(route string) func(context.Context, *app.App, []string, io.Writer) error {
	return func(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
		_, err := a.Open(ctx, route, out)
		return err
	}
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

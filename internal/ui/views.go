package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rentoo/internal/catalog"
	"rentoo/internal/domain"
	"rentoo/internal/form"
	"rentoo/internal/rental"
)

var printer = message.NewPrinter(language.English)

// Price formats an amount with grouping, e.g. 1,500.
func Price(v float64) string {
	if v == float64(int64(v)) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// CanRent reports whether the rent affordance is shown to viewer. Anonymous
// viewers see it and are sent to log in when they use it.
func CanRent(item domain.Item, viewer *domain.User) bool {
	if !item.Rentable() {
		return false
	}
	return viewer == nil || viewer.ID != item.OwnerID
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func RenderCatalog(w io.Writer, items []domain.Item, f catalog.Filter) error {
	if summary := filterSummary(f); summary != "" {
		fmt.Fprintf(w, "Filters: %s\n", summary)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE/DAY\tLOCATION")
	for _, it := range items {
		loc := ""
		if it.Location != nil {
			loc = it.Location.Address
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Category, Price(it.PricePerDay), loc)
	}
	return tw.Flush()
}

func filterSummary(f catalog.Filter) string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("query=%q", f.Query))
	}
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	if f.MinPrice != nil {
		parts = append(parts, "min="+Price(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		parts = append(parts, "max="+Price(*f.MaxPrice))
	}
	if f.Location != "" {
		parts = append(parts, "location="+f.Location)
	}
	if f.SortBy != "" {
		order := f.SortOrder
		if order == "" {
			order = catalog.SortDesc
		}
		parts = append(parts, "sort="+f.SortBy+" "+order)
	}
	return strings.Join(parts, ", ")
}

func RenderItem(w io.Writer, item domain.Item, viewer *domain.User) error {
	fmt.Fprintf(w, "%s\n", item.Title)
	fmt.Fprintf(w, "  id:        %s\n", item.ID)
	fmt.Fprintf(w, "  category:  %s\n", item.Category)
	fmt.Fprintf(w, "  status:    %s\n", item.Status)
	fmt.Fprintf(w, "  per day:   %s\n", Price(item.PricePerDay))
	if item.PricePerWeek != nil {
		fmt.Fprintf(w, "  per week:  %s\n", Price(*item.PricePerWeek))
	}
	if item.PricePerMonth != nil {
		fmt.Fprintf(w, "  per month: %s\n", Price(*item.PricePerMonth))
	}
	if item.Location != nil && item.Location.Address != "" {
		fmt.Fprintf(w, "  location:  %s\n", item.Location.Address)
	}
	if item.Description != "" {
		fmt.Fprintf(w, "\n%s\n", item.Description)
	}
	for _, img := range item.Images {
		fmt.Fprintf(w, "  image: %s\n", img)
	}

	switch {
	case CanRent(item, viewer):
		fmt.Fprintf(w, "\nRent it: rentoo rent %s <start YYYY-MM-DD> <end YYYY-MM-DD>\n", item.ID)
	case viewer != nil && viewer.ID == item.OwnerID:
		fmt.Fprintln(w, "\nThis is your item")
	default:
		fmt.Fprintln(w, "\nNot available for rent")
	}
	return nil
}

func RenderProfile(w io.Writer, user domain.User, items []domain.Item) error {
	fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "You have not listed any items yet")
		return err
	}

	fmt.Fprintln(w, "\nYour items:")
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRICE/DAY\t")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t[delete]\n", it.ID, it.Title, it.Status, Price(it.PricePerDay))
	}
	return tw.Flush()
}

// RenderRentals lists rentals with the actions the viewer may take.
func RenderRentals(w io.Writer, rentals []domain.Rental, viewerID string, role domain.Role) error {
	if role == "" {
		role = domain.RoleAll
	}
	fmt.Fprintf(w, "Rentals (%s)\n", role)
	if len(rentals) == 0 {
		_, err := fmt.Fprintln(w, "No rentals")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tITEM\tPERIOD\tTOTAL\tSTATUS\tACTIONS")
	for _, r := range rentals {
		title := r.ItemID
		if r.Item != nil && r.Item.Title != "" {
			title = r.Item.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\t%s\n",
			r.ID, title, r.StartDate, r.EndDate, Price(r.TotalPrice), r.Status, actionLabels(rental.Actions(r, viewerID, role)))
	}
	return tw.Flush()
}

func actionLabels(actions []rental.Action) string {
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = string(a)
	}
	return strings.Join(labels, ",")
}

func RenderNotifications(w io.Writer, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		_, err := fmt.Fprintln(w, "No notifications")
		return err
	}
	for _, n := range notifications {
		mark := "*"
		if n.IsRead() {
			mark = " "
		}
		fmt.Fprintf(w, "%s %s  %s\n    %s\n", mark, n.ID, n.Title, n.Content)
	}
	return nil
}

func RenderConversation(w io.Writer, messages []domain.Message, viewerID string) error {
	if len(messages) == 0 {
		_, err := fmt.Fprintln(w, "No messages yet")
		return err
	}
	for _, m := range messages {
		who := m.SenderID
		if m.SenderID == viewerID {
			who = "you"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt, who, m.Content)
	}
	return nil
}

// RenderErrors prints form errors in field order, general errors first.
func RenderErrors(w io.Writer, fields []form.Field, errs form.Errors) error {
	if msg, ok := errs[form.GeneralField]; ok {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	for _, f := range fields {
		if msg, ok := errs[f.Name]; ok {
			fmt.Fprintf(w, "%s: %s\n", f.Label, msg)
		}
	}
	return nil
}

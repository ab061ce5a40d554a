package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/services"
)

func (a *App) ListTimes(ctx context.Context, args []string) error {
	list, err := a.times.Load(ctx, a.owner)
	if err != nil {
		return a.fail(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No time entries")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, g := range services.GroupByDate(list) {
		fmt.Fprintf(tw, "%s\t\t%.2fh\t\t\n", g.Date.Format(dateLayout), g.Hours)
		for _, e := range g.Entries {
			fmt.Fprintf(tw, "  %s\t%s\t%.2fh\t%s\t%s\n", e.ID, dash(e.Project), e.Hours, dash(e.Description), e.SyncStatus)
		}
	}
	return tw.Flush()
}

func (a *App) AddTime(ctx context.Context, args []string) error {
	u, err := a.promptTimeFields()
	if err != nil {
		return a.fail(err)
	}
	if u.Hours == nil {
		return a.fail(fmt.Errorf("hours are required"))
	}

	in := models.TimeEntryCreate{
		OwnerID:     a.owner,
		Date:        a.today(),
		Hours:       *u.Hours,
		Description: deref(u.Description),
		Project:     deref(u.Project),
	}
	if u.Date != nil {
		in.Date = *u.Date
	}

	e, err := a.times.Create(ctx, in)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Time entry %s saved (%s)\n", e.ID, e.SyncStatus)
	return nil
}

func (a *App) EditTime(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter time entry id")
	if err != nil {
		return a.fail(err)
	}
	cur, err := a.times.GetByID(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Editing %s %s %.2fh (empty input keeps the current value)\n",
		cur.ID, cur.Date.Format(dateLayout), cur.Hours)

	u, err := a.promptTimeFields()
	if err != nil {
		return a.fail(err)
	}
	e, err := a.times.Update(ctx, id, u)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Time entry %s updated (%s)\n", e.ID, e.SyncStatus)
	return nil
}

func (a *App) DeleteTime(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter time entry id")
	if err != nil {
		return a.fail(err)
	}
	ok, err := a.times.Delete(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintf(a.out, "Time entry %s not found\n", id)
		return nil
	}
	fmt.Fprintf(a.out, "Time entry %s deleted\n", id)
	return nil
}

// Hours prints the hours logged between two dates, inclusive. Without
// arguments it covers the last seven days; a single date covers that day.
func (a *App) Hours(ctx context.Context, args []string) error {
	to := a.today()
	from := to.AddDate(0, 0, -6)

	if len(args) > 0 {
		d, err := parseDate(args[0])
		if err != nil {
			return a.fail(err)
		}
		from, to = *d, *d
	}
	if len(args) > 1 {
		d, err := parseDate(args[1])
		if err != nil {
			return a.fail(err)
		}
		to = *d
	}
	if to.Before(from) {
		return a.fail(fmt.Errorf("end date %s is before start date %s", to.Format(dateLayout), from.Format(dateLayout)))
	}

	total, err := a.times.TotalHours(ctx, a.owner, from, to)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s .. %s: %.2fh\n", from.Format(dateLayout), to.Format(dateLayout), total)
	return nil
}

func (a *App) promptTimeFields() (models.TimeEntryUpdate, error) {
	var u models.TimeEntryUpdate

	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, default today)", a.out)
	if err != nil {
		return u, err
	}
	hours, err := getSimpleText(a.reader, "Hours", a.out)
	if err != nil {
		return u, err
	}
	description, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return u, err
	}
	project, err := getSimpleText(a.reader, "Project", a.out)
	if err != nil {
		return u, err
	}

	if u.Date, err = parseDate(date); err != nil {
		return u, err
	}
	if u.Hours, err = parseFloat(hours, "hours"); err != nil {
		return u, err
	}
	u.Description = optText(description)
	u.Project = optText(project)
	return u, nil
}

func (a *App) today() time.Time {
	y, m, d := a.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

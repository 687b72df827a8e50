package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/format"
	"github.com/chimerakang/trackpro-go/pagination"
	"github.com/chimerakang/trackpro-go/payment"
	"github.com/chimerakang/trackpro-go/project"
)

// DefaultPageSize is the number of projects per page of the projects table.
const DefaultPageSize = 10

func newProjectsCommand(c *cli) *cobra.Command {
	var (
		opts     trackpro.ListOptions
		page     int
		pageSize int
		search   string
		modes    []string
	)
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with search and pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize <= 0 {
				return fmt.Errorf("--page-size must be positive, got %d", pageSize)
			}
			var filters project.Filters
			for _, m := range modes {
				f, ok := project.Lookup(project.Mode(m))
				if !ok {
					return fmt.Errorf("unknown filter %q (want one of %s)", m, filterModes())
				}
				filters.Add(f)
			}

			all, err := c.client().Projects().List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			matched := filters.Apply(all, search)

			out := cmd.OutOrStdout()
			if len(matched) == 0 {
				fmt.Fprintln(out, c.ui.muted.Render("No projects"))
				return nil
			}

			pages := pagination.PageCount(len(matched), pageSize)
			bar := pagination.Controls(pages, page)
			rows := make([][]string, 0, pageSize)
			for _, p := range pagination.Slice(matched, bar.Current, pageSize) {
				rows = append(rows, c.projectRow(p, opts.ReturnPayment))
			}

			headers := []string{"ID", "NAME", "OWNER", "STATUS", "PRICE", "START"}
			if opts.ReturnPayment {
				headers = append(headers, "PAYMENT", "REMAINING")
			}
			c.ui.table(out, headers, rows)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s  %s\n", c.ui.pageBar(bar),
				c.ui.muted.Render(fmt.Sprintf("page %d of %d, %d projects", bar.Current, pages, len(matched))))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ByUserID, "uid", "", "only projects owned by this user")
	f.BoolVar(&opts.ReturnPayment, "payments", false, "include payment progress")
	f.IntVar(&page, "page", 1, "page to show")
	f.IntVar(&pageSize, "page-size", DefaultPageSize, "projects per page")
	f.StringVarP(&search, "search", "s", "", "case-insensitive search text")
	f.StringSliceVar(&modes, "filter", nil, "fields to search: "+filterModes())
	return cmd
}

func (c *cli) projectRow(p trackpro.Project, withPayments bool) []string {
	row := []string{p.ID, p.Name, p.Username, c.ui.projectStatus(p.Status), format.Money(p.Price), format.Date(p.StartTime)}
	if withPayments {
		status, remaining := payment.Progress(p)
		row = append(row, c.ui.paymentStatus(status), format.Money(remaining))
	}
	return row
}

func filterModes() string {
	modes := make([]string, len(project.Available))
	for i, f := range project.Available {
		modes[i] = string(f.Mode)
	}
	return strings.Join(modes, ", ")
}

func newProjectCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show, create and update a project",
	}
	cmd.AddCommand(newProjectShowCommand(c), newProjectCreateCommand(c), newProjectUpdateCommand(c))
	return cmd
}

func newProjectShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.client().Projects().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printProject(cmd, p)
			return nil
		},
	}
}

func (c *cli) printProject(cmd *cobra.Command, p *trackpro.Project) {
	out := cmd.OutOrStdout()
	status, remaining := payment.Progress(*p)

	fmt.Fprintln(out, c.ui.title.Render(p.Name))
	c.ui.fields(out, [][2]string{
		{"ID", p.ID},
		{"Owner", fmt.Sprintf("%s (%s)", p.Username, p.UserID)},
		{"Status", c.ui.projectStatus(p.Status)},
		{"Description", orDash(p.Description)},
		{"Price", format.Money(p.Price)},
		{"Paid", format.Money(payment.Total(p.Payments))},
		{"Remaining", format.Money(remaining)},
		{"Payment", c.ui.paymentStatus(status)},
		{"Start", format.DateWithText(p.StartTime)},
		{"End", format.DateWithText(p.EndTime)},
	})
	if len(p.Payments) == 0 {
		return
	}

	fmt.Fprintln(out)
	rows := make([][]string, len(p.Payments))
	for i, pay := range p.Payments {
		rows[i] = []string{strconv.FormatInt(pay.ID, 10), format.Money(pay.Amount), format.Date(pay.CreatedAt)}
	}
	c.ui.table(out, []string{"#", "AMOUNT", "DATE"}, rows)
}

// projectFlags binds the editable project fields shared by create and update.
type projectFlags struct {
	name        string
	description string
	price       string
	status      string
	start       string
	end         string
}

func (pf *projectFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pf.name, "name", "", "project name")
	f.StringVar(&pf.description, "description", "", "project description")
	f.StringVar(&pf.price, "price", "", "price in millions of VND")
	f.StringVar(&pf.status, "status", "", "registering, progressing or finished")
	f.StringVar(&pf.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&pf.end, "end", "", "end date (YYYY-MM-DD)")
}

func newProjectCreateCommand(c *cli) *cobra.Command {
	var (
		pf     projectFlags
		userID string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project for a user (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := pf.status
			if status == "" {
				status = string(trackpro.ProjectRegistering)
			}
			p, err := c.client().Projects().Create(cmd.Context(), trackpro.ProjectCreate{
				UserID:      userID,
				Name:        pf.name,
				Description: pf.description,
				Price:       pf.price,
				Status:      trackpro.ProjectStatus(status),
				StartTime:   pf.start,
				EndTime:     pf.end,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", c.ui.title.Render(p.ID))
			return nil
		},
	}
	pf.bind(cmd)
	cmd.Flags().StringVar(&userID, "user", "", "owner user ID")
	return cmd
}

func newProjectUpdateCommand(c *cli) *cobra.Command {
	var pf projectFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project (admin); unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := c.client().Projects()
			cur, err := projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			u := trackpro.ProjectUpdate{
				Name:        cur.Name,
				Description: cur.Description,
				Price:       strconv.FormatFloat(cur.Price, 'f', -1, 64),
				Status:      cur.Status,
				StartTime:   cur.StartTime,
				EndTime:     cur.EndTime,
			}
			changed := cmd.Flags().Changed
			if changed("name") {
				u.Name = pf.name
			}
			if changed("description") {
				u.Description = pf.description
			}
			if changed("price") {
				u.Price = pf.price
			}
			if changed("status") {
				u.Status = trackpro.ProjectStatus(pf.status)
			}
			if changed("start") {
				u.StartTime = pf.start
			}
			if changed("end") {
				u.EndTime = pf.end
			}

			p, err := projects.Update(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			c.printProject(cmd, p)
			return nil
		},
	}
	pf.bind(cmd)
	return cmd
}

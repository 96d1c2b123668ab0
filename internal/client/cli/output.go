package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/client/client"
)

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatInputs(in []float64) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func printUser(w io.Writer, u *client.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		fmt.Fprintf(tw, "Name:\t%s\n", name)
	}
	fmt.Fprintf(tw, "Active:\t%t\n", u.IsActive)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(u.CreatedAt))
	if u.LastLogin != nil {
		fmt.Fprintf(tw, "Last login:\t%s\n", formatTime(*u.LastLogin))
	}
	tw.Flush()
}

func printCalculation(w io.Writer, c *client.Calculation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Type:\t%s\n", c.Type)
	fmt.Fprintf(tw, "Inputs:\t%s\n", formatInputs(c.Inputs))
	fmt.Fprintf(tw, "Result:\t%s\n", formatNumber(c.Result))
	fmt.Fprintf(tw, "Version:\t%d\n", c.Version)
	fmt.Fprintf(tw, "Updated:\t%s\n", formatTime(c.UpdatedAt))
	tw.Flush()
}

func printCalculations(w io.Writer, calcs []client.Calculation) {
	if len(calcs) == 0 {
		fmt.Fprintln(w, "No calculations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tINPUTS\tRESULT\tVERSION")
	for _, c := range calcs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.Type, formatInputs(c.Inputs), formatNumber(c.Result), c.Version)
	}
	tw.Flush()
}

func printSummary(w io.Writer, s *client.Summary) {
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%d\n", t, s.ByType[t])
	}
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	tw.Flush()
}

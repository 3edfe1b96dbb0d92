// Command editstudent edits one student record through the records API,
// applying the same validation the web form does before anything is sent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"student-records/editor"
	"student-records/models"
)

type options struct {
	api           string
	timeout       time.Duration
	name          *string
	contact       *string
	class         *string
	addCourses    []string
	removeCourses []string
	reset         bool
	show          bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	var name, contact, class string

	cmd := &cobra.Command{
		Use:           "editstudent <student-id>",
		Short:         "Edit a student's name, contact number, class and courses",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("name") {
				opts.name = &name
			}
			if flags.Changed("contact") {
				opts.contact = &contact
			}
			if flags.Changed("class") {
				opts.class = &class
			}
			err := run(cmd.Context(), args[0], opts, stdout, stderr)
			if err != nil {
				fmt.Fprintln(stderr, "error:", err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.api, "api", envOr("RECORDS_API", "http://localhost:8080"), "records API base URL")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout for each request")
	flags.StringVar(&name, "name", "", "new student name")
	flags.StringVar(&contact, "contact", "", "new contact number")
	flags.StringVar(&class, "class", "", "new class id")
	flags.StringArrayVar(&opts.addCourses, "add-course", nil, "course id to add (repeatable)")
	flags.StringArrayVar(&opts.removeCourses, "remove-course", nil, "course id to remove (repeatable)")
	flags.BoolVar(&opts.reset, "reset", false, "clear all fields before applying edits")
	flags.BoolVar(&opts.show, "show", false, "print the loaded form and exit without submitting")
	return cmd
}

func run(ctx context.Context, id string, opts *options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.New(stderr, "editstudent: ", log.LstdFlags)
	nav := editor.NavigatorFunc(func(path string) {
		fmt.Fprintf(stdout, "Student %s updated, continue at %s\n", id, path)
	})
	gateway := editor.NewHTTPGateway(opts.api, nil)
	gateway.Client.Timeout = opts.timeout

	session := editor.NewSession(id, gateway, nav,
		editor.WithLogger(logger),
		editor.WithWarnings(func(msg string) { fmt.Fprintln(stderr, "warning:", msg) }),
	)
	defer session.Close()

	if err := session.Load(ctx); err != nil {
		// The form stays usable; validation decides whether anything is sent.
		fmt.Fprintf(stderr, "Failed to fetch data: %v\n", err)
	}

	if opts.show {
		printForm(stdout, session.Form())
		return nil
	}

	if opts.reset {
		session.Reset()
	}
	if opts.name != nil {
		session.SetName(*opts.name)
	}
	if opts.contact != nil {
		session.SetContactNumber(*opts.contact)
	}
	if opts.class != nil {
		session.SetClass(*opts.class)
	}
	for _, courseID := range opts.removeCourses {
		session.RemoveCourse(courseID)
	}
	for _, courseID := range opts.addCourses {
		session.ChooseCourse(courseID)
		if err := session.AddChosenCourse(); err != nil && !errors.Is(err, editor.ErrDuplicateCourse) {
			return err
		}
	}

	state, err := session.Submit(ctx)
	switch state {
	case editor.Rejected:
		printErrors(stderr, session.Form().Errors)
	case editor.Failed:
		fmt.Fprintln(stderr, "Your changes were not saved; run the command again to retry.")
	}
	return err
}

func printForm(w io.Writer, f editor.Form) {
	classLabel := f.ClassLabel(f.ClassID)
	if classLabel == "" {
		classLabel = "-"
	}
	fmt.Fprintf(w, "Name:           %s\n", f.Name)
	fmt.Fprintf(w, "Contact number: %s\n", f.ContactNumber)
	fmt.Fprintf(w, "Class:          %s (%s)\n", f.ClassID, classLabel)
	fmt.Fprintln(w, "Courses:")
	for _, c := range f.Courses.Entries() {
		fmt.Fprintf(w, "  - %s (%s)\n", c.ID, c.Label)
	}
	fmt.Fprintln(w, "Available courses:")
	for _, o := range f.CourseCatalog {
		fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Text)
	}
	fmt.Fprintln(w, "Available classes:")
	for _, o := range f.ClassCatalog {
		fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Text)
	}
}

func printErrors(w io.Writer, errs editor.ErrorMap) {
	order := map[string]int{models.FieldName: 0, models.FieldClass: 1, models.FieldCourse: 2}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return order[fields[i]] < order[fields[j]] })
	for _, field := range fields {
		fmt.Fprintf(w, "%s: %s\n", field, errs[field])
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

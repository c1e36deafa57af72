package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/assessment-api/internal/builder"
	"github.com/noah-isme/assessment-api/internal/client"
	"github.com/noah-isme/assessment-api/internal/dto"
	"github.com/noah-isme/assessment-api/internal/models"
)

const sessionKey = "builder_session"

type savedSession struct {
	Token   string          `json:"token"`
	Builder builder.Session `json:"builder"`
}

type app struct {
	api     *client.Client
	store   builder.LocalStore
	drafts  *builder.DraftStore
	builder *builder.Builder
	out     io.Writer
}

func newApp(api *client.Client, store builder.LocalStore, out io.Writer) *app {
	drafts := builder.NewDraftStore(store)
	return &app{
		api:     api,
		store:   store,
		drafts:  drafts,
		builder: builder.New(api, drafts),
		out:     out,
	}
}

const usage = `usage: examctl <command> [flags]

commands:
  login -email E -password P   sign in and remember the token
  exams [-department D] [-status S]
                               list your exams on the server
  edit ID                      open a server exam for editing
  delete ID                    delete a server exam
  new                          start an empty draft
  import FILE                  replace the open form with a JSON payload ("-" reads stdin)
  show                         print the open form
  validate                     check the open form
  save [-name N]               save the open form as a local draft
  drafts                       list local drafts
  load ID                      open a local draft
  delete-draft ID              remove a local draft
  clear-drafts                 remove every local draft
  publish                      publish the open form
  back [-force]                close the open form`

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return nil
	}
	if err := a.loadSession(); err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "login":
		err = a.login(ctx, rest)
	case "exams":
		err = a.listExams(ctx, rest)
	case "edit":
		err = withID(rest, func(id string) error { return a.builder.EditPublished(ctx, id) })
	case "delete":
		err = withID(rest, func(id string) error { return a.api.DeleteExam(ctx, id) })
	case "new":
		err = a.builder.NewDraft()
	case "import":
		err = withID(rest, a.importFile)
	case "show":
		err = a.show()
	case "validate":
		err = a.validate()
	case "save":
		err = a.save(rest)
	case "drafts":
		err = a.listDrafts()
	case "load":
		err = withID(rest, a.builder.LoadDraft)
	case "delete-draft":
		err = withID(rest, a.drafts.Delete)
	case "clear-drafts":
		err = a.drafts.Clear()
	case "publish":
		err = a.publish(ctx)
	case "back":
		err = a.back(rest)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	return a.saveSession()
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func (a *app) listExams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("exams", flag.ContinueOnError)
	department := fs.String("department", "", "exact department")
	status := fs.String("status", "", "draft or published")
	if err := fs.Parse(args); err != nil {
		return err
	}
	exams, err := a.api.ListExams(ctx, *department, models.ExamStatus(*status))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDEPARTMENT\tMINUTES\tSTATUS\tUPDATED")
	for _, e := range exams {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\n", e.ID, e.ExamTitle, e.Department, e.DurationMinutes, e.Status, e.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *app) importFile(path string) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	var content dto.ExamContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	return a.builder.Replace(content)
}

func (a *app) show() error {
	if a.builder.Mode() != builder.ModeAuthoring {
		return builder.ErrNotAuthoring
	}
	s := a.builder.Session()
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Form); err != nil {
		return err
	}
	state := "Incomplete"
	if a.builder.IsValid() {
		state = "Ready"
	}
	fmt.Fprintf(a.out, "questions: %d  status: %s  unsaved: %t\n", len(s.Form.Questions), state, s.Dirty)
	return nil
}

func (a *app) validate() error {
	if err := a.builder.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ready to publish")
	return nil
}

func (a *app) save(args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	name := fs.String("name", "", "draft name, defaults to the exam title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	draft, err := a.builder.SaveDraft(*name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved draft %s (%s)\n", draft.ID, draft.Name)
	return nil
}

func (a *app) listDrafts() error {
	drafts, err := a.drafts.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQUESTIONS\tUPDATED")
	for _, d := range drafts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.ID, d.Name, len(d.Payload.Questions), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *app) publish(ctx context.Context) error {
	exam, err := a.builder.Publish(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "published %s (%s)\n", exam.ID, exam.ExamTitle)
	return nil
}

func (a *app) back(args []string) error {
	fs := flag.NewFlagSet("back", flag.ContinueOnError)
	force := fs.Bool("force", false, "discard unsaved changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.builder.Back(*force); err != nil {
		if errors.Is(err, builder.ErrUnsavedChanges) {
			return fmt.Errorf("%w: run save first or back -force", err)
		}
		return err
	}
	return nil
}

func (a *app) loadSession() error {
	raw, err := a.store.Get(sessionKey)
	if errors.Is(err, builder.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	var s savedSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	a.api.SetToken(s.Token)
	a.builder.Restore(s.Builder)
	return nil
}

func (a *app) saveSession() error {
	raw, err := json.Marshal(savedSession{Token: a.api.Token(), Builder: a.builder.Session()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return a.store.Set(sessionKey, raw)
}

func withID(args []string, fn func(id string) error) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("expected exactly one argument")
	}
	return fn(strings.TrimSpace(args[0]))
}

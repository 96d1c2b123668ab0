package cli

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/client/client"
	"github.com/dmitrijs2005/calckeeper/internal/client/config"
)

type fakeAPI struct {
	access, refresh string
	onRefresh       func(*client.Tokens)

	registered *client.RegisterRequest
	loginUser  string
	loginPass  string
	loginErr   error
	logoutErr  error
	logouts    int

	me       *client.User
	meHook   func(f *fakeAPI)
	added    []float64
	addedTyp string
	listQ    client.ListQuery
	list     []client.Calculation
	updateID string
	update   client.CalculationUpdate
	deleted  string
	cleared  int
	summary  *client.Summary
	export   *client.Export
	err      error
}

var _ client.API = (*fakeAPI)(nil)

func (f *fakeAPI) SetTokens(access, refresh string)  { f.access, f.refresh = access, refresh }
func (f *fakeAPI) OnRefresh(fn func(*client.Tokens)) { f.onRefresh = fn }
func (f *fakeAPI) Health(context.Context) error      { return f.err }

func (f *fakeAPI) Register(_ context.Context, req client.RegisterRequest) (*client.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = &req
	return &client.User{ID: "u1", Username: req.Username, Email: req.Email}, nil
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (*client.Tokens, error) {
	f.loginUser, f.loginPass = username, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.SetTokens("access-1", "refresh-1")
	return &client.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1", UserID: "u1", Username: "johndoe"}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	f.SetTokens("", "")
	return f.logoutErr
}

func (f *fakeAPI) Me(context.Context) (*client.User, error) {
	if f.meHook != nil {
		f.meHook(f)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.me, nil
}

func (f *fakeAPI) AddCalculation(_ context.Context, typ string, inputs []float64) (*client.Calculation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.addedTyp, f.added = typ, inputs
	return &client.Calculation{ID: "c1", Type: "addition", Inputs: inputs, Result: 18, Version: 1}, nil
}

func (f *fakeAPI) ListCalculations(_ context.Context, q client.ListQuery) ([]client.Calculation, error) {
	f.listQ = q
	return f.list, f.err
}

func (f *fakeAPI) GetCalculation(_ context.Context, id string) (*client.Calculation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.Calculation{ID: id, Type: "division", Inputs: []float64{100, 4}, Result: 25, Version: 2}, nil
}

func (f *fakeAPI) UpdateCalculation(_ context.Context, id string, upd client.CalculationUpdate) (*client.Calculation, error) {
	f.updateID, f.update = id, upd
	if f.err != nil {
		return nil, f.err
	}
	return &client.Calculation{ID: id, Type: "multiplication", Inputs: []float64{2, 3}, Result: 6, Version: 3}, nil
}

func (f *fakeAPI) DeleteCalculation(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

func (f *fakeAPI) ClearCalculations(context.Context) (int64, error) {
	f.cleared++
	return 4, f.err
}

func (f *fakeAPI) Summary(context.Context) (*client.Summary, error) { return f.summary, f.err }
func (f *fakeAPI) Export(context.Context) (*client.Export, error)   { return f.export, f.err }

type testApp struct {
	*App
	api *fakeAPI
	out *bytes.Buffer
}

func newTestApp(t *testing.T, stdin string) *testApp {
	t.Helper()

	cfg := &config.Config{
		ServerURL:      "http://calc.test",
		SessionFile:    filepath.Join(t.TempDir(), ".calckeeper", "session.json"),
		RequestTimeout: time.Second,
	}
	api := &fakeAPI{}
	out := &bytes.Buffer{}

	app := NewApp(cfg)
	app.newAPI = func(string, time.Duration) client.API { return api }
	app.reader = bufio.NewReader(strings.NewReader(stdin))
	app.out = out

	return &testApp{App: app, api: api, out: out}
}

func (a *testApp) run(args ...string) error {
	a.out.Reset()
	return a.Execute(context.Background(), args)
}

func (a *testApp) saveSession(t *testing.T) {
	t.Helper()
	sess := &client.Session{ServerURL: a.config.ServerURL, Username: "johndoe", AccessToken: "access-0", RefreshToken: "refresh-0"}
	if err := a.store.Save(sess); err != nil {
		t.Fatal(err)
	}
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(pws) {
			t.Fatalf("unexpected password prompt #%d", i+1)
		}
		pw := pws[i]
		i++
		return []byte(pw), nil
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/me/batchsim/internal/store"
	"github.com/me/batchsim/pkg/model"
)

// archive is the view of the run archive shared by the runs subcommands.
// It is backed by the local database or by a batchsim server.
type archive interface {
	List(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	Get(ctx context.Context, id string) (*model.Run, error)
	Events(ctx context.Context, id string, pid model.PID) ([]model.TraceEvent, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// openArchive picks the remote archive when --server is set.
func openArchive(ctx context.Context) (archive, error) {
	if flagServer != "" {
		return &remoteArchive{client: NewClient(flagServer, logger)}, nil
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return &localArchive{st: st}, nil
}

// openStore opens and migrates the local run database.
func openStore(ctx context.Context) (store.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return st, nil
}

type localArchive struct {
	st store.Store
}

func (a *localArchive) List(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	return a.st.ListRuns(ctx, opts)
}

func (a *localArchive) Get(ctx context.Context, id string) (*model.Run, error) {
	run, err := a.st.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, model.NewNotFoundError("run", id)
	}
	return run, nil
}

func (a *localArchive) Events(ctx context.Context, id string, pid model.PID) ([]model.TraceEvent, error) {
	if _, err := a.Get(ctx, id); err != nil {
		return nil, err
	}
	return a.st.ListRunEvents(ctx, id, pid)
}

func (a *localArchive) Delete(ctx context.Context, id string) error {
	return a.st.DeleteRun(ctx, id)
}

func (a *localArchive) Close() error { return a.st.Close() }

type remoteArchive struct {
	client *Client
}

func (a *remoteArchive) List(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(opts.Limit))
	q.Set("offset", strconv.Itoa(opts.Offset))
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	resp, err := a.client.Get(ctx, "/api/v1/runs/?"+q.Encode())
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	var runs []*model.Run
	if err := json.Unmarshal(resp.Data, &runs); err != nil {
		return nil, 0, fmt.Errorf("parse response: %w", err)
	}
	total := len(runs)
	if resp.Pagination != nil {
		total = resp.Pagination.Total
	}
	return runs, total, nil
}

func (a *remoteArchive) Get(ctx context.Context, id string) (*model.Run, error) {
	resp, err := a.client.Get(ctx, "/api/v1/runs/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var run model.Run
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &run, nil
}

func (a *remoteArchive) Events(ctx context.Context, id string, pid model.PID) ([]model.TraceEvent, error) {
	path := "/api/v1/runs/" + url.PathEscape(id) + "/events"
	if pid != model.NoProcess {
		path += "?pid=" + strconv.FormatUint(uint64(pid), 10)
	}
	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var events []model.TraceEvent
	if err := json.Unmarshal(resp.Data, &events); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return events, nil
}

func (a *remoteArchive) Delete(ctx context.Context, id string) error {
	_, err := a.client.Delete(ctx, "/api/v1/runs/"+url.PathEscape(id))
	return err
}

func (a *remoteArchive) Close() error { return nil }

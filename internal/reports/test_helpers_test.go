package reports

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"report-backend/internal/llm"
	"report-backend/internal/shared/storage/object/local"
)

const fence = "```"

const analysisBody = `{"analiz":{"veriTuru":"Sales","genelOzet":"Three products","kiritikBulgular":["North leads","South lags"],"sonuc":"Focus on North"},` +
	`"grafikler":[` +
	`{"title":"Revenue by product","type":"bar","description":"Compare products","chartConfig":{"labels":["a","b","c"],"datasets":[{"label":"value","data":[10,20,30]}]},"dataSources":["name","value"],"businessDecision":"Stock more c"},` +
	`{"title":"Broken","type":"line","chartConfig":{"datasets":[{"data":[1]}]}}` +
	`]}`

func revisionBody(conclusion string) string {
	return `{"analiz":{"veriTuru":"Sales","sonuc":"` + conclusion + `","riskFirsatAnalizi":"More risk detail"}}`
}

type fakeGateway struct {
	mu        sync.Mutex
	calls     int
	sites     []llm.CallSite
	prompts   []llm.Prompt
	responses []string
	err       error
}

func (f *fakeGateway) Complete(ctx context.Context, site llm.CallSite, prompt llm.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sites = append(f.sites, site)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no response queued")
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	return out, nil
}

func (f *fakeGateway) queue(responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newTestService(t *testing.T, gw llm.Gateway) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return &Service{
		Repo:           NewMemoryRepo(),
		Staging:        local.New(dir),
		Gateway:        gw,
		MaxUploadBytes: 1 << 20,
		Now:            newStepClock().Now,
	}, dir
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk staging dir: %v", err)
	}
	return files
}

var errUnavailableForTest = fmt.Errorf("%w: upstream status 503", llm.ErrInferenceUnavailable)

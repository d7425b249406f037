// Package directory resolves agent and requester ids to display names. Names
// come from flat "id: name" files and, when wired, the codex agents API.
// The lookup is owned explicitly by whoever constructs it and refreshed on
// demand, never through package-level state.
package directory

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"beacon/pkg/logger"
)

// Source supplies agent names from an upstream service.
type Source interface {
	Agents(ctx context.Context) (map[int64]string, error)
}

// Config points the directory at its inputs. All of them are optional; an
// empty directory still answers every lookup with its fallback strings.
type Config struct {
	AgentsFile     string
	RequestersFile string
	Source         Source
}

// Directory is a concurrency-safe id-to-name lookup.
type Directory struct {
	cfg Config
	log *logger.Logger

	mu         sync.RWMutex
	loaded     bool
	agents     map[int64]string
	requesters map[int64]string
}

// New returns an empty Directory; names load on first use or Refresh.
func New(cfg Config, log *logger.Logger) *Directory {
	return &Directory{
		cfg:        cfg,
		log:        log,
		agents:     map[int64]string{},
		requesters: map[int64]string{},
	}
}

// Refresh reloads the mapping files and, when a Source is configured, pulls
// the agent list from it. File names load first so the Source wins on
// conflicting ids. Refresh never fails the caller: a broken input keeps the
// previous names for that input.
func (d *Directory) Refresh(ctx context.Context) {
	agents := map[int64]string{}
	requesters := map[int64]string{}

	if d.cfg.AgentsFile != "" {
		parseMappingFile(d.cfg.AgentsFile, agents, d.log)
	}
	if d.cfg.RequestersFile != "" {
		parseMappingFile(d.cfg.RequestersFile, requesters, d.log)
	}
	if d.cfg.Source != nil {
		fromAPI, err := d.cfg.Source.Agents(ctx)
		if err != nil {
			d.log.Warn("agent lookup refresh from upstream failed, using file names only", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			for id, name := range fromAPI {
				agents[id] = name
			}
		}
	}

	d.mu.Lock()
	d.agents = agents
	d.requesters = requesters
	d.loaded = true
	d.mu.Unlock()

	d.log.Info("name directory refreshed", map[string]interface{}{
		"agents": len(agents), "requesters": len(requesters),
	})
}

// EnsureLoaded performs the first Refresh lazily.
func (d *Directory) EnsureLoaded(ctx context.Context) {
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if !loaded {
		d.Refresh(ctx)
	}
}

// AgentName resolves a responder id. Nil means nobody is assigned.
func (d *Directory) AgentName(id *int64) string {
	if id == nil {
		return "Unassigned"
	}
	d.mu.RLock()
	name, ok := d.agents[*id]
	d.mu.RUnlock()
	if !ok {
		return "Agent ID: " + strconv.FormatInt(*id, 10)
	}
	return name
}

// RequesterName resolves a requester id.
func (d *Directory) RequesterName(id *int64) string {
	if id == nil {
		return "N/A"
	}
	d.mu.RLock()
	name, ok := d.requesters[*id]
	d.mu.RUnlock()
	if !ok {
		return "Req. ID: " + strconv.FormatInt(*id, 10)
	}
	return name
}

// Agents returns a copy of the current agent mapping, for the view filter
// dropdown.
func (d *Directory) Agents() map[int64]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[int64]string, len(d.agents))
	for id, name := range d.agents {
		out[id] = name
	}
	return out
}

// parseMappingFile reads "id: name" lines into dst. Malformed lines are
// logged and skipped rather than failing the load.
func parseMappingFile(path string, dst map[int64]string, log *logger.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("mapping file unavailable, names will fall back to ids", map[string]interface{}{
			"file": path, "error": err.Error(),
		})
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	loaded := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idStr, name, found := strings.Cut(line, ":")
		idStr, name = strings.TrimSpace(idStr), strings.TrimSpace(name)
		if !found || idStr == "" || name == "" {
			log.Warn("skipping malformed mapping line", map[string]interface{}{
				"file": path, "line": lineNo,
			})
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			log.Warn("skipping mapping line with non-numeric id", map[string]interface{}{
				"file": path, "line": lineNo, "id": idStr,
			})
			continue
		}
		dst[id] = name
		loaded++
	}
	if err := scanner.Err(); err != nil {
		log.Warn("error while reading mapping file", map[string]interface{}{
			"file": path, "error": err.Error(),
		})
	}
	log.Info("mapping file loaded", map[string]interface{}{"file": path, "entries": loaded})
}

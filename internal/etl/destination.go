package etl

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes Rows into a target system.
// Implementations live in etl/destinations/.

// WriteMode determines what happens to rows already in the destination.
type WriteMode string

const (
	WriteAppend  WriteMode = "append"  // keep existing content, add rows after it
	WriteReplace WriteMode = "replace" // drop existing content first
)

// ParseWriteMode validates a mode string. Empty means append.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case "", WriteAppend:
		return WriteAppend, nil
	case WriteReplace:
		return WriteReplace, nil
	default:
		return "", fmt.Errorf("unknown write mode: %q", s)
	}
}

// DestinationConfig is an opaque configuration map parsed per destination type.
type DestinationConfig map[string]any

// DestinationSpec describes a destination type and its config fields.
type DestinationSpec struct {
	Type         string        `json:"type"`
	Label        string        `json:"label"`
	ConfigFields []ConfigField `json:"configFields"`
}

// RowWriter accepts rows for one opened destination.
// A row passed to Write is durable once Write returns nil.
type RowWriter interface {
	Write(ctx context.Context, row Row) error
	Close() error
}

// Destination writes rows to a target system.
type Destination interface {
	Spec() DestinationSpec
	Open(ctx context.Context, cfg DestinationConfig, schema *Schema, mode WriteMode) (RowWriter, error)
}

var (
	destMu       sync.RWMutex
	destRegistry = map[string]Destination{}
)

// RegisterDestination registers a destination by its spec type.
func RegisterDestination(d Destination) {
	destMu.Lock()
	defer destMu.Unlock()
	destRegistry[d.Spec().Type] = d
}

// GetDestination returns a registered destination by type.
func GetDestination(typ string) (Destination, error) {
	destMu.RLock()
	defer destMu.RUnlock()
	d, ok := destRegistry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown destination type: %q", typ)
	}
	return d, nil
}

// ListDestinations returns the specs of all registered destinations.
func ListDestinations() []DestinationSpec {
	destMu.RLock()
	defer destMu.RUnlock()
	specs := make([]DestinationSpec, 0, len(destRegistry))
	for _, d := range destRegistry {
		specs = append(specs, d.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}

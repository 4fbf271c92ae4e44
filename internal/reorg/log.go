package reorg

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutionLog records what happened to each selected item during change
// building, and the targets created on the caller's behalf. It is keyed by
// handle so it survives a descriptor round trip.
type ExecutionLog struct {
	processed map[string]bool
	renamed   map[string]string
	created   map[string]string
}

// NewExecutionLog creates an empty log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{
		processed: make(map[string]bool),
		renamed:   make(map[string]string),
		created:   make(map[string]string),
	}
}

// MarkProcessed records that the item with handle h was handled.
func (l *ExecutionLog) MarkProcessed(h string) {
	l.processed[h] = true
}

// MarkRenamed records that the item with handle h was copied under a new name.
func (l *ExecutionLog) MarkRenamed(h, name string) {
	l.processed[h] = true
	l.renamed[h] = name
}

// IsProcessed reports whether the item was handled.
func (l *ExecutionLog) IsProcessed(h string) bool {
	return l.processed[h]
}

// NewName returns the name the item was renamed to.
func (l *ExecutionLog) NewName(h string) (string, bool) {
	name, ok := l.renamed[h]
	return name, ok
}

// SetCreated records that target was created for the destination dest.
func (l *ExecutionLog) SetCreated(dest, target string) {
	l.created[dest] = target
}

// Created returns the target created for dest, if any.
func (l *ExecutionLog) Created(dest string) (string, bool) {
	target, ok := l.created[dest]
	return target, ok
}

// IsEmpty reports whether nothing was recorded.
func (l *ExecutionLog) IsEmpty() bool {
	return len(l.processed) == 0 && len(l.created) == 0
}

// Merge copies all records of other into l.
func (l *ExecutionLog) Merge(other *ExecutionLog) {
	if other == nil {
		return
	}
	for h := range other.processed {
		l.processed[h] = true
	}
	for h, name := range other.renamed {
		l.renamed[h] = name
	}
	for d, t := range other.created {
		l.created[d] = t
	}
}

// Encode renders the log as newline separated records of tab separated
// fields, sorted for stable output:
//
//	processed	<handle>
//	renamed	<handle>	<name>
//	created	<destination>	<target>
func (l *ExecutionLog) Encode() string {
	var records []string
	for h := range l.processed {
		if name, ok := l.renamed[h]; ok {
			records = append(records, "renamed\t"+h+"\t"+name)
			continue
		}
		records = append(records, "processed\t"+h)
	}
	for d, t := range l.created {
		records = append(records, "created\t"+d+"\t"+t)
	}
	sort.Strings(records)
	return strings.Join(records, "\n")
}

// DecodeLog parses the output of Encode.
func DecodeLog(s string) (*ExecutionLog, error) {
	l := NewExecutionLog()
	if s == "" {
		return l, nil
	}
	for i, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		switch {
		case fields[0] == "processed" && len(fields) == 2:
			l.MarkProcessed(fields[1])
		case fields[0] == "renamed" && len(fields) == 3:
			l.MarkRenamed(fields[1], fields[2])
		case fields[0] == "created" && len(fields) == 3:
			l.SetCreated(fields[1], fields[2])
		default:
			return nil, fmt.Errorf("invalid log record %d: %q", i+1, line)
		}
	}
	return l, nil
}

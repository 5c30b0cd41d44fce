package domain

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"beesync/internal/core/aggregate"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/net/http/bind"

	"gopkg.in/yaml.v3"
)

// Connection feeds one goal from one metric
type Connection struct {
	Goal   string        `yaml:"goal" json:"goal" validate:"required,goalslug"`
	Metric string        `yaml:"metric" json:"metric" validate:"required,metric"`
	Config goal.Autodata `yaml:"config" json:"config"`
}

type connectionsFile struct {
	Connections []Connection `yaml:"connections" validate:"dive"`
}

var metricTag sync.Once

func registerMetricTag() {
	metricTag.Do(func() {
		_ = bind.RegisterValidation("metric", "{0} must name a known metric", func(fl bind.FieldLevel) bool {
			_, ok := aggregate.Lookup(fl.Field().String())
			return ok
		})
	})
}

// LoadConnections reads the connections file at path; an empty path yields none
func LoadConnections(path string) ([]Connection, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read connections %s", path)
	}
	conns, err := ParseConnections(bytes.NewReader(b))
	if err != nil {
		return nil, perr.WithOp(err, path)
	}
	return conns, nil
}

// ParseConnections decodes and validates a YAML connections document
// Unknown keys and repeated goals are rejected
func ParseConnections(r io.Reader) ([]Connection, error) {
	registerMetricTag()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f connectionsFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeFormat, "connections: %v", err)
	}
	if err := bind.Validate(f); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(f.Connections))
	for _, c := range f.Connections {
		if seen[c.Goal] {
			return nil, perr.WithField(perr.Newf(perr.ErrorCodeInvalidArgument, "goal %s is connected twice", c.Goal), "goal")
		}
		seen[c.Goal] = true
	}
	return f.Connections, nil
}

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"adicode-go/bus"
	"adicode-go/errcode"
	"adicode-go/types"

	"gopkg.in/yaml.v3"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	configKey    = "adi"
	CtxDeviceKey = "device" // context key used for device ID
)

// Format selects the decoder used by Parse.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks YAML for .yaml/.yml and JSON otherwise.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Parse decodes and validates an ADI layout. Unknown fields are rejected.
func Parse(data []byte, f Format) (types.ADIConfig, error) {
	var c types.ADIConfig
	var err error
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&c)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&c)
	}
	if err != nil {
		return types.ADIConfig{}, &errcode.E{C: errcode.InvalidPayload, Op: "config parse", Err: err}
	}
	if err := c.Validate(); err != nil {
		return types.ADIConfig{}, err
	}
	return c, nil
}

// Load reads path and parses it according to its extension.
func Load(path string) (types.ADIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ADIConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config load", Err: err}
	}
	return Parse(data, FormatOf(path))
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// ConfigService publishes the ADI layout as a retained message on
// config/adi. Path wins over the embedded config for the device in ctx.
type ConfigService struct {
	Name string
	Path string
}

func NewConfigService(path string) *ConfigService {
	return &ConfigService{Name: serviceName, Path: path}
}

func (s *ConfigService) resolve(ctx context.Context) (types.ADIConfig, error) {
	if s.Path != "" {
		return Load(s.Path)
	}
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return types.ADIConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device ID in context"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return types.ADIConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no embedded config for device " + device}
	}
	return Parse(raw, FormatYAML)
}

// Publish resolves the layout and publishes it retained.
func (s *ConfigService) Publish(ctx context.Context, conn *bus.Connection) error {
	c, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	conn.Publish(conn.NewMessage(bus.T(configPrefix, configKey), c, true))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.Publish(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}

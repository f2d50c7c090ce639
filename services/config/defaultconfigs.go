package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: YAML layout for that device
// -----------------------------------------------------------------------------

const cfgSim = `
ports:
  - {port: "A", type: analog_in}
  - {port: "F", type: digital_out}
  - {port: "G", type: legacy_servo}
  - {port: "H", type: digital_in}
encoders:
  - {top: "B", bottom: "C"}
ultrasonics:
  - {echo: "D", ping: "E"}
calibrate: ["A"]
`

const cfgBench = `
ports:
  - {port: "1", type: digital_in}
  - {port: "2", type: digital_out}
`

var embeddedConfigs = map[string][]byte{
	"sim":   []byte(cfgSim),
	"bench": []byte(cfgBench),
}

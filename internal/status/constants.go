// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// HealthStale represents a stale data state: the last good cycle is older
// than the stale limit.
const HealthStale uint16 = 3

// ---- ERROR CODES ----

// CodeGeneric is reported for errors that expose no code of their own.
const CodeGeneric uint16 = 1

// CodeTimeout is reported for deadline and timeout errors.
const CodeTimeout uint16 = 0x100

// Modbus exception codes are passed through as 0x200 + exception.
const CodeModbusBase uint16 = 0x200

// ---- LIMITS ----

// SecondsInErrorMax saturates the error duration counter.
const SecondsInErrorMax = 65535

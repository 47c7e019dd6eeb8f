// Package gpio abstracts the GPIO lines behind the garage relay, wall
// button and door sensor.
//
// The Backend interface is the only thing consumers depend on. Two
// implementations are provided:
//
//   - Sysfs drives real pins through /sys/class/gpio. Edge detection is
//     polled, which is sufficient for relays, buttons and reed switches.
//   - Mock is an in-memory backend for development machines and tests,
//     with hooks to simulate input transitions and inject faults.
//
// Pin numbers are BCM numbers. Active-low inversion is the consumer's
// concern: this package deals in raw line levels only.
package gpio

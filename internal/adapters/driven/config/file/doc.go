// Package file stores labtriage settings in a hand-editable TOML file,
// config.toml under ~/.labtriage by default. Dotted keys such as
// "refdata.dir" map onto TOML tables; per-processor options live under
// [postprocessors.<name>].
package file

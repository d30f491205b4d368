// Package services implements the driving port interfaces.
// Services orchestrate the pipeline packages and the driven ports
// (decoders, reference sources, configuration).
package services

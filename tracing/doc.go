// Package tracing wraps OpenTelemetry so that the kernel can record one span
// per system call without importing the SDK directly. Nothing is exported
// until Init or InitWithExporter installs a provider; spans are no-op before.
package tracing

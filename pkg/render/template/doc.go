// Package template defines the template rendering seam used by the HTML
// renderer. Adapters live in sub-packages.
package template

package html

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce  sync.Once
	labelPolicy      *bluemonday.Policy
	helperPolicyOnce sync.Once
	helperPolicy     *bluemonday.Policy
)

// sanitizeLabel strips every tag. The result is escaped text, safe to emit
// unescaped.
func sanitizeLabel(raw string) string {
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(labelPolicy.Sanitize(raw))
}

// sanitizeHelper keeps inline formatting and links in helper text.
func sanitizeHelper(raw string) string {
	helperPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		helperPolicy = policy
	})
	return strings.TrimSpace(helperPolicy.Sanitize(raw))
}

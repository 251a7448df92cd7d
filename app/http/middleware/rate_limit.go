// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/pkg/e"
)

// RateLimit returns middleware that throttles the admin HTTP surface with a
// single shared token bucket. Disabled (no-op) when New was given a
// non-positive rate.
//
// Returns:
//   - gin.HandlerFunc: middleware that answers over-budget requests with the
//     e.BUSY error envelope and aborts the chain.
func (m middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limiter == nil || m.limiter.Allow() {
			c.Next()
			return
		}

		m.i18n.JSON(c, e.BUSY, nil, nil)
		c.Abort()
	}
}

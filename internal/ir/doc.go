// Package ir provides the record model shared by every txstore package.
//
// This package contains value and record types only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - IRValue is a closed union; consumers switch over it exhaustively
//   - Records reference each other through *Link, so graphs may be cyclic
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
package ir

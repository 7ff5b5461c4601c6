// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldClientID  = "client_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldMode      = "mode"
	FieldOutcome   = "outcome"

	// Module fields
	FieldModule     = "module"
	FieldSpecifier  = "specifier"
	FieldInternalID = "internal_id"

	// Path / URL fields
	FieldPath      = "path"
	FieldSource    = "source"
	FieldAsset     = "asset"
	FieldOutDir    = "out_dir"
	FieldPublicURL = "public_url"
)

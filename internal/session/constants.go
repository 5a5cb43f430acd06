// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

// Form field identifiers.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

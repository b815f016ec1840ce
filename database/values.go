/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"database/sql"
	"time"

	"cloud.google.com/go/civil"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dateArg(d civil.Date) string {
	return d.String()
}

func nullDateArg(d *civil.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func dateFromTime(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

func dateFromNullTime(t sql.NullTime) *civil.Date {
	if !t.Valid {
		return nil
	}
	d := dateFromTime(t.Time)
	return &d
}

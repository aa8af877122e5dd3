// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var fsys embed.FS

func Embed() fs.FS {
	return fsys
}

/*
 * basm - disc image insertion (opaque collaborator)
 *
 * Copyright 2026, CPC SDK Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package disc is the collaborator a `save ..., dsk`/`, hfe` command
// defers to. basm's own job ends at handing the named file its bytes;
// sector layout, track geometry and the DSK/EDSK/HFE container formats
// themselves are someone else's concern.
package disc

import (
	"fmt"
	"os"
)

// Inserter is the seam a real disc-image tool plugs into: given an
// image path, an in-image filename and a file's bytes, place the file
// on that image. basm ships only NoopInserter, which errors out
// instructing the caller to configure a real one.
type Inserter interface {
	Insert(imagePath, fileName string, data []byte) error
}

// NoopInserter reports that no disc-image tool is configured, rather
// than silently dropping the save.
type NoopInserter struct{}

func (NoopInserter) Insert(imagePath, fileName string, data []byte) error {
	return fmt.Errorf("disc: no image inserter configured, cannot place %q into %s", fileName, imagePath)
}

// Default is the package-level Inserter the engine's save directive
// uses unless a caller overrides it (e.g. with a real libdsk/iDSK
// wrapper).
var Default Inserter = NoopInserter{}

// WriteStandalone is a convenience fallback for callers that just want
// the raw file bytes on disc next to where the disc image would go,
// without a real inserter configured.
func WriteStandalone(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

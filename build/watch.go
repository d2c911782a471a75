/*
 * basm - build orchestrator watch mode
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

package build

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs Run every time a file any rule depends on changes.
// Once a target is built, its "last successful build" timestamp is
// retained, so a subsequent round
// only rebuilds it when a dependency's mtime has moved past that
// timestamp rather than past the target's own (possibly untouched)
// mtime. stop receives a value (or is closed) to end the watch loop.
func (o *Orchestrator) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, r := range o.Graph.Rules() {
		for _, dep := range r.Dependencies {
			dir := filepath.Dir(dep)
			if !watchedDirs[dir] {
				if err := watcher.Add(dir); err == nil {
					watchedDirs[dir] = true
				}
			}
		}
	}

	if err := o.Run(); err != nil {
		o.Obs.EmitStderr("watch", err.Error())
	}

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := o.Run(); err != nil {
				o.Obs.EmitStderr("watch", err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.Obs.EmitStderr("watch", err.Error())
		}
	}
}

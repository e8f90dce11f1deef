// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// newWatcher returns a watcher notified when a file changes.
// The directory of the file is watched because editors often
// replace a file instead of writing to it.
func newWatcher(name string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := w.Add(filepath.Dir(name)); err != nil {
		w.Close()
		return nil, errors.WithStack(err)
	}
	return w, nil
}

// watchLoop calls onChange every time a file is written or created
// until the context is done.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, name string, onChange func()) error {
	name = filepath.Clean(name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrapf(err, "cannot watch %s", name)
		}
	}
}

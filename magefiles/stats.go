// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// packageStats counts the Go lines of one package directory.
type packageStats struct {
	Package string `json:"package"`
	Prod    int    `json:"go_loc_prod"`
	Test    int    `json:"go_loc_test"`
}

// Stats prints one JSON line per package with its production and test line
// counts, followed by the totals.
func Stats() error {
	byDir := map[string]*packageStats{}
	for _, root := range []string{"cmd", "internal", "pkg"} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return err
			}
			count, err := countLines(path)
			if err != nil {
				return err
			}
			dir := filepath.Dir(path)
			ps, ok := byDir[dir]
			if !ok {
				ps = &packageStats{Package: dir}
				byDir[dir] = ps
			}
			if strings.HasSuffix(path, "_test.go") {
				ps.Test += count
			} else {
				ps.Prod += count
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	total := packageStats{Package: "total"}
	for _, dir := range dirs {
		ps := byDir[dir]
		total.Prod += ps.Prod
		total.Test += ps.Test
		if err := printStats(ps); err != nil {
			return err
		}
	}
	return printStats(&total)
}

func printStats(ps *packageStats) error {
	line, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

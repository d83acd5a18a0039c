package main

import "io"

// readAll reads r to completion, mirroring the small read-loop helpers
// already used throughout this module's packages (refs.readRaw,
// worktree.readFile) rather than reaching for io.ReadAll so billy's
// io.Reader implementations are handled identically everywhere.
func readAll(r io.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
	}
}

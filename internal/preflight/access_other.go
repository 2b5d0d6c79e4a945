//go:build !unix

package preflight

import "os"

func accessReadWrite(path string) error {
	f, err := os.CreateTemp(path, ".qbt-migrate-preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

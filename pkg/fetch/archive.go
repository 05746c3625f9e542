package fetch

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"lab47.dev/recipe/pkg/descriptor"
	"lab47.dev/recipe/pkg/sumfile"
)

const sumAlgo = "b2"

func (f *Fetcher) fetchArchive(ctx context.Context, d *descriptor.Descriptor, v descriptor.Fixed, dir string) (*Result, error) {
	L := f.L().Named("archive")

	src, err := d.URLFor(v.Label)
	if err != nil {
		return nil, err
	}

	tmp, err := ioutil.TempDir(f.Root, ".download")
	if err != nil {
		return nil, track(err)
	}

	defer os.RemoveAll(tmp)

	file := filepath.Join(tmp, filepath.Base(src))

	L.Debug("downloading", "url", src, "path", file)

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  file,
		Mode: getter.ClientModeFile,

		// Decompression is done below, after the download is hashed.
		Decompressors: map[string]getter.Decompressor{},
	}

	err = client.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", src)
	}

	h, size, err := hashFile(file)
	if err != nil {
		return nil, err
	}

	sum, err := f.checkSum(d.Name(), v.Label, h)
	if err != nil {
		return nil, err
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return nil, track(err)
	}

	err = unpack(file, dir)
	if err != nil {
		return nil, err
	}

	L.Info("fetched archive", "name", d.Name(), "version", v.Label, "dir", dir, "sum", sum)

	return &Result{
		Name:  d.Name(),
		Label: v.Label,
		Kind:  descriptor.SourceArchive,
		Dir:   dir,
		Sum:   sum,
		Size:  size,
	}, nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, track(err)
	}

	defer f.Close()

	h, _ := blake2b.New256(nil)

	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, track(err)
	}

	return h.Sum(nil), n, nil
}

func (f *Fetcher) checkSum(name, label string, h []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sums, err := f.loadSums()
	if err != nil {
		return "", err
	}

	key := sumfile.Key(name, label)

	if algo, known, ok := sums.Lookup(key); ok && algo == sumAlgo {
		if !bytes.Equal(known, h) {
			return "", errors.Wrapf(ErrSumMismatch, "%s: expected %s, got %s",
				key, base58.Encode(known), base58.Encode(h))
		}

		return sumAlgo + ":" + base58.Encode(h), nil
	}

	enc := sums.Set(key, sumAlgo, h)

	if f.SumsPath != "" {
		err = sums.SaveFile(f.SumsPath)
		if err != nil {
			return "", errors.Wrapf(err, "saving sums %s", f.SumsPath)
		}
	}

	return enc, nil
}

func unpack(path, dir string) error {
	var archive string

	matchingLen := 0
	for k := range getter.Decompressors {
		if strings.HasSuffix(path, "."+k) && len(k) > matchingLen {
			archive = k
			matchingLen = len(k)
		}
	}

	dec, ok := getter.Decompressors[archive]
	if !ok {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return track(err)
		}

		return track(os.Rename(path, filepath.Join(dir, filepath.Base(path))))
	}

	err := dec.Decompress(dir, path, true, 0)
	if err != nil {
		return errors.Wrapf(err, "unable to decompress %s", path)
	}

	return nil
}

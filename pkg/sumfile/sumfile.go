package sumfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Sumfile records the hash of each fetched source, one line per source
// in the form algo:base58hash name@version.
type Sumfile struct {
	entries []entry
}

type entry struct {
	source string
	algo   string
	hash   []byte
}

// Key is the source name used for version label of package name.
func Key(name, label string) string {
	return name + "@" + label
}

func (s *Sumfile) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			ent, perr := parseLine(trimmed)
			if perr != nil {
				return errors.Wrapf(perr, "sums line %d", lineNo)
			}

			s.entries = append(s.entries, ent)
		}

		if err == io.EOF {
			break
		}
	}

	s.sort()

	return nil
}

func parseLine(line []byte) (entry, error) {
	colon := bytes.IndexByte(line, ':')
	space := bytes.IndexByte(line, ' ')

	if colon == -1 || space == -1 || space < colon {
		return entry{}, errors.Errorf("malformed entry: %q", line)
	}

	h, err := base58.Decode(string(line[colon+1 : space]))
	if err != nil {
		return entry{}, err
	}

	return entry{
		algo:   string(line[:colon]),
		hash:   h,
		source: string(bytes.TrimSpace(line[space+1:])),
	}, nil
}

// LoadFile reads path. A missing file yields an empty Sumfile.
func LoadFile(path string) (*Sumfile, error) {
	var sf Sumfile

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &sf, nil
		}

		return nil, err
	}

	defer f.Close()

	err = sf.Load(f)
	if err != nil {
		return nil, err
	}

	return &sf, nil
}

func (s *Sumfile) sort() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].source < s.entries[j].source
	})
}

func (s *Sumfile) find(source string) int {
	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].source >= source
	})

	if idx < len(s.entries) && s.entries[idx].source == source {
		return idx
	}

	return -1
}

// Set records the hash for source, replacing any previous one, and
// returns the encoded form.
func (s *Sumfile) Set(source, algo string, h []byte) string {
	if idx := s.find(source); idx != -1 {
		s.entries[idx].algo = algo
		s.entries[idx].hash = h
	} else {
		s.entries = append(s.entries, entry{source: source, algo: algo, hash: h})
		s.sort()
	}

	return algo + ":" + base58.Encode(h)
}

func (s *Sumfile) Lookup(source string) (string, []byte, bool) {
	idx := s.find(source)
	if idx == -1 {
		return "", nil, false
	}

	return s.entries[idx].algo, s.entries[idx].hash, true
}

func (s *Sumfile) Save(w io.Writer) error {
	for _, e := range s.entries {
		_, err := fmt.Fprintf(w, "%s:%s %s\n", e.algo, base58.Encode(e.hash), e.source)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Sumfile) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = s.Save(f)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Package fetcher maintains the local artifact content cache.
package fetcher

import (
	"bufio"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akrylysov/pogreb"
	"github.com/go-git/go-billy/v5"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/minepack/minepack/models"
)

var sumNames = []string{"md5", "sha1", "sha256", "keccak256"}

func newSumHashes() []hash.Hash {
	return []hash.Hash{md5.New(), sha1.New(), sha256.New(), sha3.New256()}
}

// Fetcher downloads artifacts into a cache keyed by (projectID, fileID).
// Data files land in Files; their checksum records live in Database. A
// download writes a temp file and renames it into place, so concurrent
// readers of a shared cache never observe partial bytes.
type Fetcher struct {
	Files    billy.Filesystem
	Database *pogreb.DB
	Client   *http.Client

	group singleflight.Group
}

// Request pairs an entry with the URL to fetch it from when the cache
// cannot serve it.
type Request struct {
	Entry models.Entry
	URL   string
}

func cachePath(fs billy.Basic, e models.Entry) (dir, base string) {
	return fs.Join("curse", strconv.Itoa(e.ProjectID)), strconv.Itoa(e.FileID)
}

func (dl *Fetcher) dataPath(e models.Entry) string {
	dir, base := cachePath(dl.Files, e)
	return dl.Files.Join(dir, base+".dat")
}

// Fetch ensures the artifact for e is cached and verified. At most one
// download per cache key is in flight across goroutines.
func (dl *Fetcher) Fetch(ctx context.Context, e models.Entry, rawurl string) error {
	key := dl.dataPath(e)
	_, err, _ := dl.group.Do(key, func() (interface{}, error) {
		return nil, dl.fetch(ctx, e, rawurl)
	})
	return err
}

func (dl *Fetcher) fetch(ctx context.Context, e models.Entry, rawurl string) error {
	ok, err := dl.cached(e)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if rawurl == "" {
		rawurl = e.DownloadURL
	}
	if rawurl == "" {
		return fmt.Errorf("project %d file %d: no download URL", e.ProjectID, e.FileID)
	}
	return dl.download(ctx, e, rawurl)
}

// cached reports whether a verified copy is present. A data file with no
// checksum record is re-hashed and the record rebuilt, so an interrupted
// run leaves the cache valid and resumable.
func (dl *Fetcher) cached(e models.Entry) (bool, error) {
	fpath := dl.dataPath(e)
	if _, err := dl.Files.Stat(fpath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	sums, err := dl.readSums(e)
	if err != nil {
		return false, err
	}
	if sums == nil {
		if sums, err = dl.rehash(e); err != nil {
			return false, err
		}
	}
	if err := verifyDeclared(e, sums); err != nil {
		// Stale or corrupt cache slot; force a fresh download.
		return false, nil
	}
	return true, nil
}

func (dl *Fetcher) download(ctx context.Context, e models.Entry, rawurl string) error {
	dir, base := cachePath(dl.Files, e)
	if err := dl.Files.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// A unique staging name keeps concurrent writers of a shared cache
	// from trampling each other's bytes before the rename.
	f, err := dl.Files.TempFile(dir, base)
	if err != nil {
		return err
	}
	tmp := f.Name()

	hashes := newSumHashes()
	ww := make([]io.Writer, 0, len(hashes)+1)
	for _, h := range hashes {
		ww = append(ww, h)
	}
	ww = append(ww, f)

	err = dl.fetchURL(ctx, io.MultiWriter(ww...), rawurl)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = dl.Files.Remove(tmp)
		return err
	}

	sums := make([]string, len(hashes))
	for i, name := range sumNames {
		sums[i] = fmt.Sprintf("%s:%x", name, hashes[i].Sum(nil))
	}
	if err := verifyDeclared(e, sums); err != nil {
		// Corrupted content must never be promoted into the cache.
		_ = dl.Files.Remove(tmp)
		return err
	}
	if err := dl.Files.Rename(tmp, dl.Files.Join(dir, base+".dat")); err != nil {
		return err
	}
	return dl.writeSums(e, sums)
}

// verifyDeclared checks the declared sha1 against the recorded sums. An
// entry without a declared hash is accepted as is.
func verifyDeclared(e models.Entry, sums []string) error {
	if e.ContentHash == "" {
		return nil
	}
	want := "sha1:" + strings.ToLower(e.ContentHash)
	for _, sum := range sums {
		if sum == want {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", e.FileName, models.ErrSumsMismatch)
}

func (dl *Fetcher) fetchURL(ctx context.Context, w io.Writer, rawurl string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return err
	}
	resp, err := dl.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %q: unexpected status %d", rawurl, resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// Open returns the cached artifact for reading, verifying it first.
func (dl *Fetcher) Open(e models.Entry) (billy.File, error) {
	ok, err := dl.cached(e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %d file %d: %w", e.ProjectID, e.FileID, os.ErrNotExist)
	}
	return dl.Files.Open(dl.dataPath(e))
}

// Sums returns the recorded checksum lines for a cached artifact.
func (dl *Fetcher) Sums(e models.Entry) ([]string, error) {
	sums, err := dl.readSums(e)
	if err != nil {
		return nil, err
	}
	if sums != nil {
		return sums, nil
	}
	return dl.rehash(e)
}

func (dl *Fetcher) readSums(e models.Entry) ([]string, error) {
	v, err := dl.Database.Get([]byte(dl.dataPath(e)))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return strings.Split(strings.TrimSpace(string(v)), "\n"), nil
}

func (dl *Fetcher) writeSums(e models.Entry, sums []string) error {
	v := strings.Join(sums, "\n") + "\n"
	return dl.Database.Put([]byte(dl.dataPath(e)), []byte(v))
}

// rehash recomputes sums from the data file and rebuilds the record.
func (dl *Fetcher) rehash(e models.Entry) ([]string, error) {
	f, err := dl.Files.Open(dl.dataPath(e))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	hashes := newSumHashes()
	ww := make([]io.Writer, len(hashes))
	for i, h := range hashes {
		ww[i] = h
	}
	r := bufio.NewReader(f)
	if _, err := io.Copy(io.MultiWriter(ww...), r); err != nil {
		return nil, err
	}
	sums := make([]string, len(hashes))
	for i, name := range sumNames {
		sums[i] = fmt.Sprintf("%s:%x", name, hashes[i].Sum(nil))
	}
	if err := dl.writeSums(e, sums); err != nil {
		return nil, err
	}
	return sums, nil
}

// FetchAll downloads every request with a bounded worker pool. The
// returned slice is aligned with reqs; a nil element means that artifact
// is cached and verified. Only context cancellation aborts the pool.
func (dl *Fetcher) FetchAll(ctx context.Context, reqs []Request, workers int) ([]error, error) {
	if workers <= 0 {
		workers = 4
	}
	errs := make([]error, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = dl.Fetch(ctx, req.Entry, req.URL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return errs, nil
}

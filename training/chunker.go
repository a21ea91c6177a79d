package training

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/colinmarc/hdfs"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ChunkerConfig configures chunk rotation and optional remote mirroring.
type ChunkerConfig struct {
	Dir          string
	SamplesPerChunk int
	Gzip         bool

	// HDFSAddr, when non-empty, mirrors each rotated chunk to HDFS at
	// startup-time connection -- grounded on cmd/train/main.go's
	// writeToHdfs, generalized so the namenode address and user are
	// configuration rather than a hardcoded hostname.
	HDFSAddr string
	HDFSUser string
	HDFSDir  string
}

// Chunker is the Output Chunker of spec.md section 2: it appends
// serialized TimeSteps to a chunk file, rotating to a new file after
// SamplesPerChunk samples, and counts existing chunks on startup so a
// restarted self-play run doesn't clobber earlier chunks.
type Chunker struct {
	cfg ChunkerConfig

	mu       sync.Mutex
	index    int
	inChunk  int
	f        *os.File
	gz       *gzip.Writer
	hdfsConn *hdfs.Client
}

// NewChunker counts existing chunk files in cfg.Dir and opens the next
// one for appending.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, errors.Wrap(err, "training: creating chunk dir")
	}
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "training: reading chunk dir")
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	c := &Chunker{cfg: cfg, index: count}
	if cfg.HDFSAddr != "" {
		conn, err := hdfs.NewForUser(cfg.HDFSAddr, cfg.HDFSUser)
		if err != nil {
			return nil, errors.Wrap(err, "training: connecting to hdfs")
		}
		c.hdfsConn = conn
	}
	if err := c.rotate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chunker) chunkPath(idx int) string {
	name := fmt.Sprintf("chunk_%06d.txt", idx)
	if c.cfg.Gzip {
		name += ".gz"
	}
	return filepath.Join(c.cfg.Dir, name)
}

func (c *Chunker) rotate() error {
	if c.f != nil {
		if err := c.closeCurrent(); err != nil {
			return err
		}
		c.index++
	}
	f, err := os.OpenFile(c.chunkPath(c.index), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "training: opening chunk file")
	}
	c.f = f
	c.inChunk = 0
	if c.cfg.Gzip {
		c.gz = gzip.NewWriter(f)
	}
	return nil
}

// closeCurrent closes the gzip writer and underlying file independently,
// accumulating both failures instead of abandoning the file descriptor
// open when the gzip trailer fails to flush.
func (c *Chunker) closeCurrent() error {
	path := c.chunkPath(c.index)
	var result *multierror.Error
	if c.gz != nil {
		if err := c.gz.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "training: closing gzip writer"))
		}
		c.gz = nil
	}
	if err := c.f.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "training: closing chunk file"))
	}
	c.f = nil
	if result.ErrorOrNil() != nil {
		return result
	}
	if c.hdfsConn != nil {
		return c.mirrorToHDFS(path)
	}
	return nil
}

func (c *Chunker) mirrorToHDFS(localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return errors.Wrap(err, "training: reading chunk for hdfs upload")
	}
	remote := filepath.Join(c.cfg.HDFSDir, filepath.Base(localPath))
	w, err := c.hdfsConn.Create(remote)
	if err != nil {
		return errors.Wrap(err, "training: creating hdfs file")
	}
	defer w.Close()
	_, err = w.Write(data)
	return err
}

// Append writes one TimeStep to the current chunk, rotating first if
// the configured sample count has been reached.
func (c *Chunker) Append(step TimeStep) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.SamplesPerChunk > 0 && c.inChunk >= c.cfg.SamplesPerChunk {
		if err := c.rotate(); err != nil {
			return err
		}
	}
	var w = io.Writer(c.f)
	if c.gz != nil {
		w = c.gz
	}
	if err := WriteText(w, step); err != nil {
		return err
	}
	c.inChunk++
	return nil
}

// Close flushes and closes the current chunk file (and mirrors it to
// HDFS if configured).
func (c *Chunker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCurrent()
}

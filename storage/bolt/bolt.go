// Package bolt is a storage.Storage backed by BoltDB.
//
// Each namespace gets a bucket, and each library is stored as YAML
// under its name.
package bolt

import (
	"context"
	"log"
	"time"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/library"
	"github.com/Comcast/estructura/storage"

	bolt "go.etcd.io/bbolt"
)

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

// bucket returns the bucket name for the namespace.  The empty name
// is the default namespace.
func bucket(ns string) []byte {
	if ns == "" {
		ns = core.DefaultName
	}
	return []byte(ns)
}

func (s *Storage) Put(ctx context.Context, lib *library.Library) error {
	s.logf("Put %s %s", lib.Namespace, lib.Name)
	if lib.Name == "" {
		return library.ErrNoName
	}
	bs, err := lib.YAML()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket(lib.Namespace))
		if err != nil {
			return err
		}
		return b.Put([]byte(lib.Name), bs)
	})
}

func (s *Storage) Get(ctx context.Context, ns, name string) (*library.Library, error) {
	s.logf("Get %s %s", ns, name)
	var lib *library.Library
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket(ns))
		if b == nil {
			return storage.NotFound
		}
		bs := b.Get([]byte(name))
		if bs == nil {
			return storage.NotFound
		}
		var err error
		lib, err = library.Parse(bs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func (s *Storage) List(ctx context.Context, ns string) ([]*library.Library, error) {
	s.logf("List %s", ns)
	libs := make([]*library.Library, 0, 8)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket(ns))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for name, bs := c.First(); name != nil; name, bs = c.Next() {
			lib, err := library.Parse(bs)
			if err != nil {
				return err
			}
			libs = append(libs, lib)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("List %s found %d libraries", ns, len(libs))

	return libs, nil
}

func (s *Storage) Delete(ctx context.Context, ns, name string) error {
	s.logf("Delete %s %s", ns, name)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket(ns))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
}

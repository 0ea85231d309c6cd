// Package decompress transparently decodes gzip and zstd compressed data
// files so that documentation sets can be served compressed.
package decompress

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/fwojciec/docnav"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Suffixes are tried in order when the plain file is missing.
var Suffixes = []string{".gz", ".zst"}

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Decode returns data decompressed according to its magic bytes. Data that
// is neither gzip nor zstd is returned unchanged.
func Decode(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case bytes.HasPrefix(data, zstdMagic):
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer putZstdDecoder(dec)
		return dec.DecodeAll(data, nil)
	default:
		return data, nil
	}
}

// Fetcher decodes compressed files fetched by another Fetcher. When a file
// is missing it falls back to the same name with each of Suffixes.
type Fetcher struct {
	fetcher docnav.Fetcher
}

// NewFetcher wraps fetcher.
func NewFetcher(fetcher docnav.Fetcher) *Fetcher {
	return &Fetcher{fetcher: fetcher}
}

// Fetch implements docnav.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := f.fetcher.Fetch(ctx, name)
	for _, suffix := range Suffixes {
		if docnav.ErrorCode(err) != docnav.ENOTFOUND {
			break
		}
		data, err = f.fetcher.Fetch(ctx, name+suffix)
	}
	if err != nil {
		if docnav.ErrorCode(err) == docnav.ENOTFOUND {
			return nil, docnav.Errorf(docnav.ENOTFOUND, "%s not found", name)
		}
		return nil, err
	}

	decoded, err := Decode(data)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "decompress %s", name)
	}
	return decoded, nil
}

var _ docnav.Fetcher = (*Fetcher)(nil)

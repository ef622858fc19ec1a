package tools

import (
	"bytes"
	"io"
	"io/ioutil"
	"path/filepath"
	"regexp"

	"github.com/Comcast/estructura/library"
)

var inlinePattern = regexp.MustCompile(`%inline *\("([^"]*)"\)`)

// Inline replaces '%inline("NAME")' with f(NAME).
//
// Every line of a multi-line replacement after the first is indented
// like the line with the directive, so a source file can be inlined
// into a YAML block scalar.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	acc := make([]byte, 0, len(bs))
	i := 0
	for _, m := range inlinePattern.FindAllSubmatchIndex(bs, -1) {
		acc = append(acc, bs[i:m[0]]...)
		i = m[1]

		replacement, err := f(string(bs[m[2]:m[3]]))
		if err != nil {
			return nil, err
		}
		replacement = bytes.TrimRight(replacement, "\n")

		indent := lineIndent(bs, m[0])
		acc = append(acc, bytes.Replace(replacement, []byte("\n"), append([]byte("\n"), indent...), -1)...)
	}
	return append(acc, bs[i:]...), nil
}

// lineIndent returns the leading whitespace of the line that contains
// position i.
func lineIndent(bs []byte, i int) []byte {
	start := bytes.LastIndexByte(bs[:i], '\n') + 1
	end := start
	for end < i && (bs[end] == ' ' || bs[end] == '\t') {
		end++
	}
	return bs[start:end]
}

// ReadAllWithInlines is a replacement for ioutil.ReadAll that
// Inline()s files from the given directory.
func ReadAllWithInlines(in io.Reader, dir string) ([]byte, error) {
	bs, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return Inline(bs, func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, name))
	})
}

// ReadFileWithInlines is a replacement for ioutil.ReadFile that
// Inline()s files relative to the file's directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(filename)
	return Inline(bs, func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, name))
	})
}

// ReadLibrary reads a library file with inlines.
func ReadLibrary(filename string) (*library.Library, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	return library.Parse(bs)
}

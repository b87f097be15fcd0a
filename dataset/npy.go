package dataset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/notargets/spectralns/utils"
)

/*
	Persisted layout, relative to an output root:

				data/navier_stokes.npy       (num_samples, 2, N, N) float32
				data/navier_stokes_test.npy  (num_test,    2, N, N) float32

	Axis 1 selects the initial (0) or evolved (1) vorticity. Files are NumPy
	.npy version 1.0, little endian, C order.
*/
const (
	DataDir     = "data"
	FullFile    = "navier_stokes.npy"
	TestFile    = "navier_stokes_test.npy"
	PreviewFile = "preview.png"
)

var npyMagic = []byte("\x93NUMPY")

const (
	maxArrayLen = 1 << 31 // Largest element count ReadArray accepts
	readChunk   = 1 << 16
)

// Array is a C-ordered float32 tensor.
type Array struct {
	Shape []int
	Data  []float32
}

func (a Array) Len() (n int) {
	n = 1
	for _, d := range a.Shape {
		n *= d
	}
	return
}

// PackSamples lays samples out as (len(samples), 2, N, N).
func PackSamples(samples []Sample, N int) (a Array) {
	var (
		NN = N * N
	)
	a = Array{
		Shape: []int{len(samples), 2, N, N},
		Data:  make([]float32, len(samples)*2*NN),
	}
	for k, s := range samples {
		base := k * 2 * NN
		copy(a.Data[base:base+NN], s.Initial.Float32())
		copy(a.Data[base+NN:base+2*NN], s.Evolved.Float32())
	}
	return
}

// Sample unpacks entry k of a (num, 2, N, N) array.
func (a Array) Sample(k int) (s Sample, err error) {
	if len(a.Shape) != 4 || a.Shape[1] != 2 || a.Shape[2] != a.Shape[3] {
		err = fmt.Errorf("array shape %v is not (num, 2, N, N)", a.Shape)
		return
	}
	if k < 0 || k >= a.Shape[0] {
		err = fmt.Errorf("sample %d out of range [0, %d)", k, a.Shape[0])
		return
	}
	var (
		N    = a.Shape[2]
		NN   = N * N
		base = k * 2 * NN
	)
	s.Initial, s.Evolved = utils.NewMatrix(N, N), utils.NewMatrix(N, N)
	iD, eD := s.Initial.Data(), s.Evolved.Data()
	for i := 0; i < NN; i++ {
		iD[i] = float64(a.Data[base+i])
		eD[i] = float64(a.Data[base+NN+i])
	}
	return
}

func WriteArray(w io.Writer, a Array) (err error) {
	if a.Len() != len(a.Data) {
		return fmt.Errorf("array shape %v does not hold %d values", a.Shape, len(a.Data))
	}
	dims := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(a.Shape) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%s), }", shape)
	// Magic, version and header length take 10 bytes; pad the header with
	// spaces and a newline to a multiple of 64.
	total := 10 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"
	bw := bufio.NewWriter(w)
	bw.Write(npyMagic)
	bw.Write([]byte{1, 0})
	if err = binary.Write(bw, binary.LittleEndian, uint16(len(header))); err != nil {
		return
	}
	bw.WriteString(header)
	if err = binary.Write(bw, binary.LittleEndian, a.Data); err != nil {
		return
	}
	return bw.Flush()
}

var (
	descrRe = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	orderRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

func ReadArray(r io.Reader) (a Array, err error) {
	var (
		pre   = make([]byte, 8)
		hlen  uint16
		hlen4 uint32
	)
	if _, err = io.ReadFull(r, pre); err != nil {
		return
	}
	if !bytes.Equal(pre[:6], npyMagic) {
		err = fmt.Errorf("not an npy file")
		return
	}
	switch pre[6] {
	case 1:
		err = binary.Read(r, binary.LittleEndian, &hlen)
		hlen4 = uint32(hlen)
	case 2, 3:
		err = binary.Read(r, binary.LittleEndian, &hlen4)
	default:
		err = fmt.Errorf("unsupported npy version %d.%d", pre[6], pre[7])
	}
	if err != nil {
		return
	}
	header := make([]byte, hlen4)
	if _, err = io.ReadFull(r, header); err != nil {
		return
	}
	h := string(header)
	if m := descrRe.FindStringSubmatch(h); m == nil || m[1] != "<f4" {
		err = fmt.Errorf("unsupported npy dtype in header %q", h)
		return
	}
	if m := orderRe.FindStringSubmatch(h); m == nil || m[1] != "False" {
		err = fmt.Errorf("fortran ordered arrays are not supported")
		return
	}
	m := shapeRe.FindStringSubmatch(h)
	if m == nil {
		err = fmt.Errorf("missing shape in header %q", h)
		return
	}
	for _, f := range strings.Split(m[1], ",") {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		var d int
		if d, err = strconv.Atoi(f); err != nil {
			return
		}
		a.Shape = append(a.Shape, d)
	}
	var n int
	if n, err = checkShape(a.Shape); err != nil {
		return
	}
	// Grow with the data actually present, a truncated file never costs the
	// allocation its header claims.
	buf := make([]float32, min(n, readChunk))
	a.Data = make([]float32, 0, len(buf))
	for len(a.Data) < n {
		chunk := buf[:min(n-len(a.Data), len(buf))]
		if err = binary.Read(r, binary.LittleEndian, chunk); err != nil {
			err = fmt.Errorf("array data ends after %d of %d values: %w", len(a.Data), n, err)
			return
		}
		a.Data = append(a.Data, chunk...)
	}
	return
}

func checkShape(shape []int) (n int, err error) {
	n = 1
	for _, d := range shape {
		if d < 0 {
			err = fmt.Errorf("negative dimension in shape %v", shape)
			return
		}
		if d != 0 && n > maxArrayLen/d {
			err = fmt.Errorf("shape %v exceeds %d elements", shape, maxArrayLen)
			return
		}
		n *= d
	}
	return
}

// WriteArrayFile writes through a temporary file so an interrupted write never
// leaves a truncated artifact under the final name.
func WriteArrayFile(fileName string, a Array) (n int64, err error) {
	var (
		file *os.File
		tmp  = fileName + ".tmp"
	)
	if file, err = os.Create(tmp); err != nil {
		return
	}
	if err = WriteArray(file, a); err != nil {
		file.Close()
		os.Remove(tmp)
		return
	}
	if err = file.Close(); err != nil {
		os.Remove(tmp)
		return
	}
	if err = os.Rename(tmp, fileName); err != nil {
		os.Remove(tmp)
		return
	}
	var fi os.FileInfo
	if fi, err = os.Stat(fileName); err != nil {
		return
	}
	n = fi.Size()
	return
}

func ReadArrayFile(fileName string) (a Array, err error) {
	var (
		file *os.File
	)
	if file, err = os.Open(fileName); err != nil {
		return
	}
	defer file.Close()
	return ReadArray(bufio.NewReader(file))
}

// Save writes both artifacts under root/DataDir and returns their paths and
// total size.
func (ds *Dataset) Save(root string) (paths []string, size int64, err error) {
	dir := filepath.Join(root, DataDir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	for _, out := range []struct {
		name    string
		samples []Sample
	}{
		{FullFile, ds.Samples},
		{TestFile, ds.Test},
	} {
		var (
			n    int64
			path = filepath.Join(dir, out.name)
		)
		if n, err = WriteArrayFile(path, PackSamples(out.samples, ds.N)); err != nil {
			err = fmt.Errorf("writing %s: %w", path, err)
			return
		}
		paths = append(paths, path)
		size += n
	}
	return
}

// Load reads both artifacts from root/DataDir.
func Load(root string) (full, test Array, err error) {
	dir := filepath.Join(root, DataDir)
	if full, err = ReadArrayFile(filepath.Join(dir, FullFile)); err != nil {
		return
	}
	test, err = ReadArrayFile(filepath.Join(dir, TestFile))
	return
}

// Package mnist downloads and parses the MNIST handwritten digit dataset
// and serves it as normalized tensor batches.
package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Image geometry and the standard normalization constants.
const (
	ImageSize   = 28
	ImagePixels = ImageSize * ImageSize

	normMean = 0.1307
	normStd  = 0.3081
)

// IDX file magic numbers.
const (
	magicImages = 2051
	magicLabels = 2049
)

// Dataset holds normalized images and their labels. Images are stored as
// one flat float32 slice, ImagePixels values per example.
type Dataset struct {
	Images []float32
	Labels []int64
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Labels) }

// Image returns the normalized pixels of example i.
func (d *Dataset) Image(i int) []float32 {
	return d.Images[i*ImagePixels : (i+1)*ImagePixels]
}

// Load reads the training and test sets from dir. The four gzipped IDX
// files must already be present; see Download.
func Load(dir string) (train, test *Dataset, err error) {
	train, err = loadSplit(dir, trainImagesFile, trainLabelsFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading training set")
	}
	test, err = loadSplit(dir, testImagesFile, testLabelsFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading test set")
	}
	return train, test, nil
}

func loadSplit(dir, imagesFile, labelsFile string) (*Dataset, error) {
	images, err := readImages(filepath.Join(dir, imagesFile))
	if err != nil {
		return nil, err
	}
	labels, err := readLabels(filepath.Join(dir, labelsFile))
	if err != nil {
		return nil, err
	}
	if len(images)/ImagePixels != len(labels) {
		return nil, errors.Errorf("%d images but %d labels", len(images)/ImagePixels, len(labels))
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

func readImages(path string) ([]float32, error) {
	r, closeFn, err := openGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, errors.Wrapf(err, "reading header of %s", path)
		}
	}
	if header[0] != magicImages {
		return nil, errors.Errorf("%s: bad magic %d, want %d", path, header[0], magicImages)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows != ImageSize || cols != ImageSize {
		return nil, errors.Errorf("%s: unexpected image size %dx%d", path, rows, cols)
	}

	raw := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "reading %d images from %s", n, path)
	}

	images := make([]float32, len(raw))
	for i, px := range raw {
		images[i] = (float32(px)/255.0 - normMean) / normStd
	}
	return images, nil
}

func readLabels(path string) ([]int64, error) {
	r, closeFn, err := openGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var header [2]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, errors.Wrapf(err, "reading header of %s", path)
		}
	}
	if header[0] != magicLabels {
		return nil, errors.Errorf("%s: bad magic %d, want %d", path, header[0], magicLabels)
	}
	n := int(header[1])

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "reading %d labels from %s", n, path)
	}

	labels := make([]int64, n)
	for i, l := range raw {
		labels[i] = int64(l)
	}
	return labels, nil
}

func openGzip(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "decompressing %s", path)
	}
	return gz, func() {
		gz.Close()
		f.Close()
	}, nil
}

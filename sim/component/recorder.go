package component

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/celskeggs/magstripe/sim/model"
	"github.com/celskeggs/magstripe/sim/util"
	"github.com/hashicorp/go-multierror"
)

var recordingHeader = []string{"Nanoseconds", "Format", "Bit Count", "Hex Bits"}

// Clock is the part of model.SimContext a recorder needs.
type Clock interface {
	Now() model.VirtualTime
}

// WallClock measures virtual time from a real start instant, for recording from hardware.
type WallClock struct {
	Start time.Time
}

func (w WallClock) Now() model.VirtualTime {
	return model.TimeZero.Add(time.Since(w.Start))
}

// CaptureRecorder appends raw captures to a CSV file so that swipes can be
// decoded and plotted again later.
type CaptureRecorder struct {
	clock  Clock
	closer io.Closer
	output *csv.Writer
}

func (r *CaptureRecorder) IsRecording() bool {
	return r.output != nil
}

func (r *CaptureRecorder) Record(format string, bits []bool) error {
	if format == "" {
		panic("invalid empty format name")
	}
	if r.output == nil {
		// not recording; discard
		return nil
	}
	err := r.output.Write([]string{
		strconv.FormatUint(r.clock.Now().Nanoseconds(), 10),
		format,
		strconv.Itoa(len(bits)),
		hex.EncodeToString(util.PackBits(bits)),
	})
	r.output.Flush()
	if err == nil {
		err = r.output.Error()
	}
	return err
}

func (r *CaptureRecorder) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer, r.output = nil, nil
	return err
}

func MakeNullRecorder() *CaptureRecorder {
	return &CaptureRecorder{
		output: nil,
	}
}

// MakeCaptureRecorder writes the header to w and returns a recorder that appends to it.
func MakeCaptureRecorder(clock Clock, w io.Writer) (*CaptureRecorder, error) {
	cw := csv.NewWriter(w)
	err := cw.Write(recordingHeader)
	cw.Flush()
	if err == nil {
		err = cw.Error()
	}
	if err != nil {
		return nil, err
	}
	closer, _ := w.(io.Closer)
	return &CaptureRecorder{
		clock:  clock,
		closer: closer,
		output: cw,
	}, nil
}

func CreateCaptureRecorder(clock Clock, path string) (*CaptureRecorder, error) {
	w, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r, err := MakeCaptureRecorder(clock, w)
	if err != nil {
		return nil, multierror.Append(err, w.Close())
	}
	return r, nil
}

// AppendCaptureRecorder adds to the recording at path, creating it (with its
// header) when it does not exist or is empty.
func AppendCaptureRecorder(clock Clock, path string) (*CaptureRecorder, error) {
	w, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := w.Stat()
	if err != nil {
		return nil, multierror.Append(err, w.Close())
	}
	if info.Size() > 0 {
		return &CaptureRecorder{
			clock:  clock,
			closer: w,
			output: csv.NewWriter(w),
		}, nil
	}
	r, err := MakeCaptureRecorder(clock, w)
	if err != nil {
		return nil, multierror.Append(err, w.Close())
	}
	return r, nil
}

type Record struct {
	Timestamp model.VirtualTime
	Format    string
	Bits      []bool
}

func DecodeRecording(path string) (records []Record, re error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			re = multierror.Append(re, err)
		}
	}()
	return ReadRecording(r)
}

func ReadRecording(r io.Reader) (records []Record, err error) {
	recordsRaw, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recordsRaw) < 1 {
		return nil, errors.New("no header found")
	}
	if len(recordsRaw[0]) != len(recordingHeader) {
		return nil, fmt.Errorf("invalid header: %v", recordsRaw[0])
	}
	for i, name := range recordingHeader {
		if recordsRaw[0][i] != name {
			return nil, fmt.Errorf("invalid header: %v", recordsRaw[0])
		}
	}
	for _, record := range recordsRaw[1:] {
		if len(record) != len(recordingHeader) {
			return nil, fmt.Errorf("invalid data record: %v", record)
		}
		// decode timestamp
		timestampNS, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, err
		}
		timestamp, ok := model.FromNanoseconds(timestampNS)
		if !ok {
			return nil, fmt.Errorf("invalid timestamp: %v", record[0])
		}
		format := record[1]
		if format == "" {
			return nil, errors.New("invalid empty string format")
		}
		count, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, err
		}
		packed, err := hex.DecodeString(record[3])
		if err != nil {
			return nil, err
		}
		bits, err := util.UnpackBits(packed, count)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Timestamp: timestamp,
			Format:    format,
			Bits:      bits,
		})
	}
	return records, nil
}

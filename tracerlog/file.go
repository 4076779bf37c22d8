package tracerlog

import "os"

// File writes log events to a file opened in append mode.
type File struct {
	writer *os.File
}

// NewFile opens (creating if needed) filename for appended log output.
func NewFile(filename string) (*File, error) {

	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	return &File{f}, nil
}

func (f *File) Write(event *Event) {

	f.writer.Write([]byte(event.fmsg))
}

func (f *File) Close() {

	f.writer.Close()
	f.writer = nil
}

func (f *File) Sync() {

	f.writer.Sync()
}

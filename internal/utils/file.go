package utils

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// ReadBinary reads a little-endian dump written by WriteBinary.
func ReadBinary[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("%T has no fixed size", zero)
	}
	data := make([]T, int(fileInfo.Size())/size)
	if err := binary.Read(bufio.NewReader(file), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// WriteBinary dumps fixed size values, e.g. received symbols for plotting.
func WriteBinary[T any](filename string, data []T) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}

// WriteLines writes one formatted element per line.
func WriteLines[T any](filename string, data []T, format func(T) string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, element := range data {
		if _, err := fmt.Fprintln(w, format(element)); err != nil {
			file.Close()
			return fmt.Errorf("failed to write file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}

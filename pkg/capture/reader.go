// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package capture reads offline pcap and pcapng captures and turns their
// frames into analyzer input.
package capture

import (
	"bufio"
	"bytes"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// Reader yields decoded packets from a capture file.
type Reader struct {
	file     *os.File
	source   *gopacket.PacketSource
	linkType layers.LinkType
	format   string
}

// Open opens a pcap or pcapng file; the format is detected from the magic
// number.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newOpenError(path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		_ = f.Close()
		return nil, newOpenError(path, err)
	}

	var (
		src      gopacket.PacketDataSource
		linkType layers.LinkType
		format   string
	)
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			_ = f.Close()
			return nil, newOpenError(path, err)
		}
		src, linkType, format = ng, ng.LinkType(), "pcapng"
	} else {
		r, err := pcapgo.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, newOpenError(path, err)
		}
		src, linkType, format = r, r.LinkType(), "pcap"
	}

	ps := gopacket.NewPacketSource(src, linkType)
	ps.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

	return &Reader{file: f, source: ps, linkType: linkType, format: format}, nil
}

// Next returns the next packet, or io.EOF at the end of the file.
func (r *Reader) Next() (gopacket.Packet, error) {
	return r.source.NextPacket()
}

// LinkType is the link layer of the capture.
func (r *Reader) LinkType() layers.LinkType {
	return r.linkType
}

// Format is "pcap" or "pcapng".
func (r *Reader) Format() string {
	return r.format
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

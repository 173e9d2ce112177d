package proto

// DataCommand is a write-only link to a register addressed controller: a
// single byte opcode phase followed by an optional data phase.
type DataCommand interface {
	SendCommands(cmd Frame) error
	SendData(data Frame) error
}

// ReadWriteDataCommand is a DataCommand that can also read back registers.
type ReadWriteDataCommand interface {
	DataCommand
	ReadData(cmd Frame, buf []byte) error
}

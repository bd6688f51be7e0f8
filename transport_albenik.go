package serialmon

import (
	albenik "github.com/albenik/go-serial/v2"
)

func openAlbenik(cfg Config) (SerialPort, error) {
	p, err := albenik.Open(
		cfg.PortName,
		albenik.WithBaudrate(cfg.BaudRate),
		albenik.WithDataBits(cfg.DataBits),
		albenik.WithParity(albenikParity(cfg.Parity)),
		albenik.WithStopBits(albenikStopBits(cfg.StopBits)),
		albenik.WithReadTimeout(int(cfg.ReadTimeout.Milliseconds())),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func albenikParity(pa Parity) albenik.Parity {
	switch pa {
	case ParityOdd:
		return albenik.OddParity
	case ParityEven:
		return albenik.EvenParity
	case ParityMark:
		return albenik.MarkParity
	case ParitySpace:
		return albenik.SpaceParity
	}
	return albenik.NoParity
}

func albenikStopBits(sb StopBits) albenik.StopBits {
	switch sb {
	case StopBits1Half:
		return albenik.OnePointFiveStopBits
	case StopBits2:
		return albenik.TwoStopBits
	}
	return albenik.OneStopBit
}

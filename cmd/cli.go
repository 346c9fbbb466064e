// Package cmd is httpcli, an interactive client that packs requests and
// parses responses with the server's own codec.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fzft/go-mock-httpd/deps/linenoise"
	"github.com/fzft/go-mock-httpd/httpwire"
	"github.com/fzft/go-mock-httpd/log"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

const (
	HttpCliHisFileEnv     = "HTTPCLI_HISTFILE"
	HttpCliHisFileDefault = ".httpcli_history"

	// HttpCliIOTimeout bounds one request/response exchange.
	HttpCliIOTimeout = 30 * time.Second
)

var errQuit = errors.New("quit")

type CliConnInfo struct {
	hostIp   string
	hostPort int
}

type header struct {
	name, value string
}

type HttpCli struct {
	connInfo CliConnInfo
	conn     net.Conn
	ctx      *httpwire.Context
	headers  []header
	out      io.Writer
	line     *linenoise.LineNoise
}

func NewHttpCli(attrs httpwire.Attrs, out io.Writer) (*HttpCli, error) {
	ctx, err := httpwire.NewContext(attrs)
	if err != nil {
		return nil, err
	}
	return &HttpCli{
		connInfo: CliConnInfo{hostIp: "127.0.0.1", hostPort: 8080},
		ctx:      ctx,
		out:      out,
	}, nil
}

// SetTarget changes the address the next connect or request uses.
func (cli *HttpCli) SetTarget(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	cli.connInfo = CliConnInfo{hostIp: host, hostPort: p}
	return nil
}

// Run reads commands until quit or end of input. A terminal on stdin gets
// line editing and history; anything else is read line by line.
func (cli *HttpCli) Run() error {
	defer cli.Close()
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return cli.repl()
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := cli.Exec(scanner.Text()); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintf(cli.out, "(error) %s\n", err)
		}
	}
	return scanner.Err()
}

func (cli *HttpCli) repl() error {
	cli.line = linenoise.New()
	defer cli.line.Close()

	historyFile := getDotfilePath(HttpCliHisFileEnv, HttpCliHisFileDefault)
	if historyFile != "" {
		cli.line.HistoryLoad(historyFile)
	}
	for {
		line, err := cli.line.Prompt(cli.prompt())
		if err != nil {
			// ctrl-c or ctrl-d
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cli.line.AppendHistory(line)
		if historyFile != "" {
			if err := cli.line.HistorySave(historyFile); err != nil {
				log.Logger.Debug("failed to save history", zap.Error(err))
			}
		}
		if err := cli.Exec(line); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintf(cli.out, "(error) %s\n", err)
		}
	}
}

func (cli *HttpCli) prompt() string {
	if cli.conn == nil {
		return "not connected> "
	}
	return fmt.Sprintf("http://%s> ", cli.addr())
}

func (cli *HttpCli) addr() string {
	return net.JoinHostPort(cli.connInfo.hostIp, strconv.Itoa(cli.connInfo.hostPort))
}

// Exec runs one command line.
func (cli *HttpCli) Exec(line string) error {
	argv := strings.Fields(line)
	if len(argv) == 0 {
		return nil
	}
	switch {
	case strings.EqualFold(argv[0], "quit") || strings.EqualFold(argv[0], "exit"):
		return errQuit
	case strings.EqualFold(argv[0], "connect"):
		if len(argv) != 3 {
			return errors.New("usage: connect <host> <port>")
		}
		port, err := strconv.Atoi(argv[2])
		if err != nil {
			return fmt.Errorf("invalid port number %q", argv[2])
		}
		cli.connInfo = CliConnInfo{hostIp: argv[1], hostPort: port}
		return cli.connect(true)
	case strings.EqualFold(argv[0], "header"):
		return cli.setHeader(strings.TrimSpace(line[len(argv[0]):]))
	case strings.EqualFold(argv[0], "clear"):
		if cli.line != nil {
			return cli.line.ClearScreen()
		}
		return nil
	}

	method, ok := httpwire.LookupMethod(argv[0])
	if !ok {
		return fmt.Errorf("unknown command or method %q", argv[0])
	}
	if len(argv) < 2 {
		return fmt.Errorf("usage: %s <url> [body]", method)
	}
	var body string
	if len(argv) > 2 {
		// body is the rest of the line, spaces included
		rest := strings.TrimSpace(line)
		rest = strings.TrimSpace(rest[len(argv[0]):])
		body = strings.TrimSpace(rest[len(argv[1]):])
	}
	return cli.request(method, argv[1], body)
}

// setHeader adds a header sent with every following request. An empty
// argument lists them, "-" drops them all.
func (cli *HttpCli) setHeader(arg string) error {
	switch arg {
	case "":
		for _, h := range cli.headers {
			fmt.Fprintf(cli.out, "%s: %s\n", h.name, h.value)
		}
		return nil
	case "-":
		cli.headers = nil
		return nil
	}
	name, value, ok := strings.Cut(arg, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return errors.New("usage: header <Name>: <value>")
	}
	cli.headers = append(cli.headers, header{name: name, value: strings.TrimSpace(value)})
	return nil
}

func (cli *HttpCli) connect(force bool) error {
	if cli.conn != nil {
		if !force {
			return nil
		}
		cli.conn.Close()
		cli.conn = nil
	}
	conn, err := net.DialTimeout("tcp", cli.addr(), HttpCliIOTimeout)
	if err != nil {
		return err
	}
	cli.conn = conn
	log.Logger.Debug("connected", zap.String("addr", cli.addr()))
	return nil
}

func (cli *HttpCli) request(method, url, body string) error {
	if err := cli.connect(false); err != nil {
		return err
	}
	ctx := cli.ctx
	ctx.Reset()
	req := &ctx.Request
	req.Method = method
	req.Version = httpwire.Version11
	url, req.Fragment, _ = strings.Cut(url, "#")
	req.URL, req.Query, _ = strings.Cut(url, "?")
	req.Header.Add("Host", cli.addr())
	for _, h := range cli.headers {
		req.Header.Add(h.name, h.value)
	}
	if body != "" || method == httpwire.MethodPost || method == httpwire.MethodPut || method == httpwire.MethodPatch {
		req.SetBody([]byte(body))
	}

	cli.conn.SetDeadline(time.Now().Add(HttpCliIOTimeout))
	err := ctx.PackRequest(cli.conn)
	if err == nil {
		err = ctx.ParseResponse(cli.conn)
	}
	if err != nil {
		cli.conn.Close()
		cli.conn = nil
		return err
	}
	cli.printResponse(&ctx.Response)

	if v, _ := ctx.Response.Header.Get("Connection"); strings.EqualFold(v, "close") {
		cli.conn.Close()
		cli.conn = nil
	}
	return nil
}

func (cli *HttpCli) printResponse(resp *httpwire.Response) {
	fmt.Fprintf(cli.out, "%s %d %s\n", resp.Version, resp.Status, resp.Reason)
	resp.Header.Each(func(name, value string) {
		fmt.Fprintf(cli.out, "%s: %s\n", name, value)
	})
	fmt.Fprintln(cli.out)
	if resp.Body.Len() > 0 {
		cli.out.Write(resp.Body.Bytes())
		if !strings.HasSuffix(resp.Body.String(), "\n") {
			fmt.Fprintln(cli.out)
		}
	}
}

func (cli *HttpCli) Close() error {
	if cli.conn == nil {
		return nil
	}
	err := cli.conn.Close()
	cli.conn = nil
	return err
}

func getDotfilePath(envOverride, dotFilename string) string {
	path := os.Getenv(envOverride)
	if path != "" {
		if path == "/dev/null" {
			return ""
		}
		return path
	}
	if home := os.Getenv("HOME"); home != "" {
		return fmt.Sprintf("%s/%s", home, dotFilename)
	}
	return ""
}

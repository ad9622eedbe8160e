package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/kingofdarck/idle-garden-sub001/internal/draw"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/notify"
)

var severityColors = [...]string{
	notify.Info:    draw.ColorReset,
	notify.Success: draw.ColorBrightCyan,
	notify.Warning: draw.ColorBrightYel,
	notify.Error:   draw.ColorBrightRed,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	snapshot := c.engine.Snapshot()

	// On phase, inactivity or shutdown transitions, do a full terminal clear
	// so UI elements from the previous screen don't persist.
	if snapshot.Phase != c.state.prevPhase || c.state.isInactive != c.state.wasInactive ||
		c.state.ShuttingDown != c.state.wasShutdown {
		draw.ClearScreen(c.chunkWriter)
		c.canvas.ForceRedraw()
		c.state.prevPhase = snapshot.Phase
		c.state.wasInactive = c.state.isInactive
		c.state.wasShutdown = c.state.ShuttingDown
	}

	draw.Scene(c.canvas, snapshot, c.maxHealth)

	// Render canvas to terminal
	if err := c.canvas.Render(c.chunkWriter); err != nil {
		return err
	}

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawUI(snapshot)
	return c.chunkWriter.Flush()
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI(snapshot *loop.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerY := termHeight / 2

	if c.state.ShuttingDown {
		c.drawShutdownScreen(centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerY)
		return
	}

	switch snapshot.Phase {
	case loop.PhaseLoading:
		c.drawStartScreen(centerY)
	case loop.PhaseRunning:
		c.drawToasts(termWidth, snapshot.Time)
	case loop.PhasePaused:
		c.writeCentered(centerY, "PAUSED")
		c.writeCentered(centerY+2, "Press P to resume")
	case loop.PhaseGameOver:
		c.drawGameOverScreen(centerY, snapshot)
	}
	c.drawHUD(termWidth, termHeight, snapshot)
}

// writeCentered writes s centered on a canvas row and marks the cells so the
// next frame repaints them.
func (c *Client) writeCentered(row int, s string) {
	width := len(s)
	col := max(c.canvas.TerminalWidth()/2-width/2, 1)
	c.chunkWriter.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, width)
}

// drawHUD draws the status line below the playfield.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawHUD(termWidth, termHeight int, snapshot *loop.Snapshot) {
	st := snapshot.State
	left := fmt.Sprintf("Score: %-8d Health: %-4d Level: %-3d", st.Score, max(st.PlanetHealth, 0), st.Level)

	var right string
	if snapshot.Boost > 0 {
		right = fmt.Sprintf("BOOST %3.1fs  x%d", snapshot.Boost/1000, snapshot.MultiShot)
	} else {
		right = fmt.Sprintf("           x%d", snapshot.MultiShot)
	}

	line := left
	if pad := termWidth - len(left) - len(right); pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	if len(line) > termWidth {
		line = line[:termWidth]
	}
	c.chunkWriter.WriteAt(1, termHeight+1, line)
}

// drawToasts stacks active toasts in the top right corner.
func (c *Client) drawToasts(termWidth int, now float64) {
	cw := c.chunkWriter
	for i, t := range c.toasts.Active(now) {
		msg := " " + t.Message + " "
		col := max(termWidth-len(msg), 1)
		cw.WriteAt(col, 1+i, severityColors[t.Severity]+msg+draw.ColorReset)
		c.canvas.MarkTextDirty(col, 1+i, len(msg))
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerY int) {
	c.writeCentered(centerY-2, "INACTIVITY WARNING")
	c.writeCentered(centerY, fmt.Sprintf(
		"You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	))
	c.writeCentered(centerY+2, "Press any key to continue")
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerY int) {
	// ASCII art title (figlet "small" font)
	titleArt := []string{
		` ___  ___ ___ ___ _  _ ___  ___ ___  `,
		`|   \| __| __| __| \| |   \| __| _ \ `,
		`| |) | _|| _|| _|| .' | |) | _||   / `,
		`|___/|___|_| |___|_|\_|___/|___|_|_\ `,
	}

	titleStartY := centerY - 8
	for i, line := range titleArt {
		c.writeCentered(titleStartY+i, line)
	}
	c.writeCentered(titleStartY+len(titleArt)+1, "~ Keep the rocks off the planet ~")

	controlsY := titleStartY + len(titleArt) + 3
	controlLines := []string{
		"Controls",
		"WASD / arrows  . . Move",
		"SPACE  . . . . . . Fire",
		"P  . . . . . . .  Pause",
		"Q  . . . . . . . . Quit",
	}
	for i, line := range controlLines {
		c.writeCentered(controlsY+i, line)
	}

	// Blinking start prompt
	prompt := ">>  Press ENTER to Start  <<"
	if time.Now().UnixMilli()/600%2 != 0 {
		prompt = strings.Repeat(" ", len(prompt))
	}
	c.writeCentered(controlsY+len(controlLines)+1, prompt)

	c.drawLeaderboard(controlsY + len(controlLines) + 3)
}

// drawGameOverScreen draws the final score and the leaderboard.
func (c *Client) drawGameOverScreen(centerY int, snapshot *loop.Snapshot) {
	titleArt := []string{
		`  ___   _   __  __ ___    _____   _____ ___  `,
		` / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
		`| (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
		` \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
	}

	titleStartY := centerY - 8
	for i, line := range titleArt {
		c.writeCentered(titleStartY+i, line)
	}

	row := titleStartY + len(titleArt) + 1
	c.writeCentered(row, fmt.Sprintf("Score: %d   Level: %d", snapshot.State.Score, snapshot.State.Level))
	if c.state.Rank > 0 {
		c.writeCentered(row+1, fmt.Sprintf("New high score, rank #%d!", c.state.Rank))
	}

	prompt := ">>  Press ENTER to Restart  <<"
	if time.Now().UnixMilli()/600%2 != 0 {
		prompt = strings.Repeat(" ", len(prompt))
	}
	c.writeCentered(row+3, prompt)

	c.drawLeaderboard(row + 5)
}

// drawLeaderboard lists the lobby's best scores; the player's own entry is highlighted.
func (c *Client) drawLeaderboard(row int) {
	top := c.server.TopScores()
	if len(top) == 0 {
		return
	}
	c.writeCentered(row, "High scores")
	for i, e := range top {
		line := fmt.Sprintf("%d. %-*s %8d", i+1, config.MaxUsernameLength, e.Username, e.Score)
		if c.state.Rank == i+1 {
			line = "> " + line + " <"
		} else {
			line = "  " + line + "  "
		}
		c.writeCentered(row+1+i, line)
	}
}

// drawShutdownScreen draws the lobby shutdown notification screen.
func (c *Client) drawShutdownScreen(centerY int) {
	c.writeCentered(centerY-3, "SERVER SHUTTING DOWN")
	c.writeCentered(centerY-1, "The server is restarting for maintenance.")
	c.writeCentered(centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerY+2, fmt.Sprintf("Disconnecting in %2d seconds...", remaining))
	c.writeCentered(centerY+4, "Press Q to disconnect now")
}

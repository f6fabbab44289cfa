package widget

// Stylesheet is injected once per document, as <style id="movie-mate-styles">
const Stylesheet = `
.movie-mate-recommendation {
  width: 100%;
  height: 100%;
  min-height: 200px;
  overflow: hidden;
  border-radius: 8px;
  position: relative;
  background: #1a1a1a;
}

.movie-poster-container {
  position: relative;
  width: 100%;
  height: 100%;
}

.movie-poster {
  width: 100%;
  height: 100%;
  object-fit: cover;
  transition: transform 0.3s ease;
}

.movie-info {
  position: absolute;
  bottom: 0;
  left: 0;
  right: 0;
  padding: 1rem;
  background: linear-gradient(transparent, rgba(0,0,0,0.9));
  color: white;
  transform: translateY(100%);
  transition: transform 0.3s ease;
}

.movie-poster-container:hover .movie-info {
  transform: translateY(0);
}

.movie-poster-container:hover .movie-poster {
  transform: scale(1.05);
}

.movie-info h3 {
  margin: 0;
  font-size: 1.1rem;
  font-weight: bold;
}

.movie-meta {
  margin-top: 0.5rem;
  font-size: 0.9rem;
  opacity: 0.8;
}

.movie-meta span {
  margin-right: 1rem;
}

.more-info-btn {
  display: inline-block;
  margin-top: 0.5rem;
  padding: 0.5rem 1rem;
  background: #e50914;
  color: white;
  border: none;
  border-radius: 4px;
  cursor: pointer;
  text-decoration: none;
  transition: background 0.3s ease;
}

.more-info-btn:hover {
  background: #f40612;
}

.adfriend-widget {
  background: #f3f4f6;
  padding: 10px;
  border-radius: 8px;
}
`
